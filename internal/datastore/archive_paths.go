package datastore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aleister1102/pagewatch/internal/common"
)

const (
	archiveDataDir    = "changes"
	archiveFileSuffix = "_changes.parquet"
	urlHashLength     = 16
)

// archivePath returns {base}/changes/{host_port}/{hash}_changes.parquet for a source URL
// and creates the host directory.
func archivePath(basePath, sourceURL string) (string, error) {
	hostPort, err := hostnameWithPort(sourceURL)
	if err != nil {
		return "", common.WrapError(err, "failed to derive archive path for "+sourceURL)
	}

	dir := filepath.Join(basePath, archiveDataDir, strings.ReplaceAll(hostPort, ":", "_"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", common.WrapError(err, "failed to create archive directory "+dir)
	}
	return filepath.Join(dir, urlHash(sourceURL)+archiveFileSuffix), nil
}

func urlHash(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return hex.EncodeToString(sum[:])[:urlHashLength]
}

// hostnameWithPort returns host:port, filling in the scheme's default port.
func hostnameWithPort(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("could not parse URL '%s': %w", rawURL, err)
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", fmt.Errorf("URL has no hostname component: %s", rawURL)
	}
	port := parsed.Port()
	if port == "" {
		if strings.EqualFold(parsed.Scheme, "https") {
			port = "443"
		} else {
			port = "80"
		}
	}
	return host + ":" + port, nil
}

// urlLocks hands out one mutex per URL so that appends to the same archive file are serialized.
type urlLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newURLLocks() *urlLocks {
	return &urlLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *urlLocks) get(url string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[url]
	if !ok {
		m = &sync.Mutex{}
		l.locks[url] = m
	}
	return m
}
