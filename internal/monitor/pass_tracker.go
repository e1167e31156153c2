package monitor

import (
	"fmt"
	"sync"
	"time"
)

// PassTracker counts passes and remembers which URLs changed in the current pass.
type PassTracker struct {
	changedURLs   map[string]struct{}
	currentPassID string
	mutex         sync.RWMutex
	maxPasses     int
	currentPass   int
}

// NewPassTracker creates a tracker. maxPasses 0 means run until stopped.
func NewPassTracker(maxPasses int) *PassTracker {
	return &PassTracker{
		changedURLs: make(map[string]struct{}),
		maxPasses:   maxPasses,
	}
}

// StartPass begins a new pass, increments the counter and sets a new ID.
func (pt *PassTracker) StartPass(now time.Time) (int, string) {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()

	pt.currentPass++
	pt.currentPassID = fmt.Sprintf("pass-%s-%d", now.Format("20060102-150405"), pt.currentPass)
	pt.changedURLs = make(map[string]struct{})
	return pt.currentPass, pt.currentPassID
}

// ShouldContinue returns false once the maximum number of passes has been reached.
func (pt *PassTracker) ShouldContinue() bool {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()
	if pt.maxPasses == 0 {
		return true
	}
	return pt.currentPass < pt.maxPasses
}

// AddChangedURL records a change for the current pass.
func (pt *PassTracker) AddChangedURL(url string) {
	if url == "" {
		return
	}

	pt.mutex.Lock()
	defer pt.mutex.Unlock()

	pt.changedURLs[url] = struct{}{}
}

// ChangedURLs returns the URLs that changed in the current pass.
func (pt *PassTracker) ChangedURLs() []string {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()

	urls := make([]string, 0, len(pt.changedURLs))
	for url := range pt.changedURLs {
		urls = append(urls, url)
	}
	return urls
}

// PassCount returns the number of passes started so far.
func (pt *PassTracker) PassCount() int {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()
	return pt.currentPass
}

// CurrentPassID returns the ID of the pass in progress or last finished.
func (pt *PassTracker) CurrentPassID() string {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()
	return pt.currentPassID
}
