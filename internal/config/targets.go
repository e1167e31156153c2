package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/normalizer"
)

// Targets file errors
var (
	ErrTargetsFileNotFound = errors.New("targets file not found")
	ErrTargetsFileEmpty    = errors.New("targets file contains no URLs")
)

// ReadTargetsFile reads one URL per line. Blank lines and lines starting with # are skipped.
func ReadTargetsFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTargetsFileNotFound, filePath)
		}
		return nil, fmt.Errorf("open targets file %s: %w", filePath, err)
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read targets file %s: %w", filePath, err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTargetsFileEmpty, filePath)
	}
	return urls, nil
}

// normalizeTargets canonicalizes URLs and drops duplicates, keeping the first occurrence order.
// Every invalid URL is reported, not only the first one.
func normalizeTargets(urls []string) ([]string, error) {
	var invalid common.ErrorCollector
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, raw := range urls {
		u, err := normalizer.NormalizeURL(raw)
		if err != nil {
			invalid.Add(common.NewConfigurationError("monitor_config", "target_urls",
				fmt.Sprintf("invalid target URL %q: %v", raw, err)))
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	if err := invalid.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
