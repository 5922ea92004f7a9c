// ABOUTME: Reads ICS payloads from local files or URLs with conditional GET
// ABOUTME: URL bodies are cached in memory and reused on 304 or when the network fails

package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

type cachedBody struct {
	etag         string
	lastModified string
	body         []byte
}

// Fetcher loads source bodies. The zero value is not usable; call NewFetcher.
type Fetcher struct {
	client *http.Client
	logf   Logf

	mu    sync.Mutex
	cache map[string]cachedBody
}

// NewFetcher creates a fetcher with a 15 second HTTP timeout
func NewFetcher(logf Logf) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 15 * time.Second},
		logf:   logf,
		cache:  make(map[string]cachedBody),
	}
}

// Load returns the body of a local path or an http(s) URL.
func (f *Fetcher) Load(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, ErrEmptySource
	}

	if !isURL(location) {
		body, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", location, err)
		}
		return body, nil
	}

	return f.loadURL(ctx, location)
}

func (f *Fetcher) loadURL(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	cached, haveCache := f.cache[url]
	f.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	if cached.etag != "" {
		req.Header.Set("If-None-Match", cached.etag)
	}
	if cached.lastModified != "" {
		req.Header.Set("If-Modified-Since", cached.lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if haveCache {
			f.logf.printf("fetch %s failed, using cached body: %v", redactURL(url), err)
			return cached.body, nil
		}
		return nil, fmt.Errorf("fetch %s: %w", redactURL(url), err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", redactURL(url), err)
		}

		f.mu.Lock()
		f.cache[url] = cachedBody{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get("Last-Modified"),
			body:         body,
		}
		f.mu.Unlock()

		return body, nil

	case http.StatusNotModified:
		if !haveCache {
			return nil, errors.New("304 Not Modified without a cached body")
		}
		return cached.body, nil

	default:
		if haveCache {
			f.logf.printf("fetch %s returned %s, using cached body", redactURL(url), resp.Status)
			return cached.body, nil
		}
		return nil, fmt.Errorf("fetch %s: %s", redactURL(url), resp.Status)
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// redactURL keeps only scheme and host; calendar URLs often embed tokens
func redactURL(u string) string {
	i := strings.Index(u, "://")
	if i < 0 {
		return "ics://...(redacted)"
	}

	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}

	return u[:i+3] + rest + "/...(redacted)"
}
