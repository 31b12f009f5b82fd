// Package urlloader is the URL-loader collaborator named in spec.md §6:
// "if the string begins with http:// or https://, the collaborator
// URL-loader fetches and returns the body; otherwise the string is the
// source." It is intentionally a thin net/http wrapper — no example repo in
// the corpus supplies a dedicated URL-fetch library beyond the standard
// library for this narrow a job (see DESIGN.md).
package urlloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"langextract/internal/langextract/errs"
)

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 30 * time.Second

// IsURL reports whether s should be treated as a URL to fetch rather than
// literal source text.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Loader fetches a URL's body as the extraction source text.
type Loader struct {
	Client *http.Client
}

// New builds a Loader with the default timeout.
func New() *Loader {
	return &Loader{Client: &http.Client{Timeout: DefaultTimeout}}
}

// Load fetches url and returns its body as a string, or a network-kind
// error.
func (l *Loader) Load(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errs.Wrap(errs.KindNetwork, "urlloader: building request failed", err)
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.KindNetwork, "urlloader: fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errs.New(errs.KindNetwork, fmt.Sprintf("urlloader: unexpected status %d for %s", resp.StatusCode, url))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.Wrap(errs.KindNetwork, "urlloader: reading body failed", err)
	}
	return string(body), nil
}

// Resolve returns the source text for textOrURL: fetching it if it looks
// like a URL, otherwise returning it unchanged.
func Resolve(ctx context.Context, l *Loader, textOrURL string) (string, error) {
	if !IsURL(textOrURL) {
		return textOrURL, nil
	}
	return l.Load(ctx, textOrURL)
}
