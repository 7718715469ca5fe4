package datastore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/tphakala/tagtrack/internal/detection"
	"github.com/tphakala/tagtrack/internal/errors"
	"github.com/tphakala/tagtrack/internal/httpclient"
)

// HTTPSource reads a CSV file served over http(s).
//
// The version is taken from the ETag or Last-Modified header of a HEAD request. Servers
// that send neither are versioned by a hash of the downloaded content. That body is kept
// and handed to the next Load, so a changed file is downloaded once per check.
type HTTPSource struct {
	client *httpclient.Client
	url    string
	opts   ParseOptions

	mu      sync.Mutex
	pending *download
}

// download is a fetched body together with its version.
type download struct {
	body    []byte
	version string
}

// NewHTTPSource creates a source for url. A nil client uses httpclient defaults.
func NewHTTPSource(client *httpclient.Client, url string, opts ParseOptions) *HTTPSource {
	if client == nil {
		client = httpclient.New(nil)
	}
	return &HTTPSource{client: client, url: url, opts: opts}
}

// Name implements Source.
func (s *HTTPSource) Name() string { return "http" }

// Version asks the server for a validator, falling back to hashing the body.
func (s *HTTPSource) Version(ctx context.Context) (string, error) {
	resp, err := s.client.Head(ctx, s.url)
	if err == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if isSuccess(resp.StatusCode) {
			if v := headerVersion(resp.Header); v != "" {
				s.setPending(nil)
				return v, nil
			}
		}
	}

	// HEAD unsupported or no validators: hash the content
	d, err := s.fetch(ctx)
	if err != nil {
		s.setPending(nil)
		return "", err
	}
	s.setPending(d)
	return d.version, nil
}

// Load parses the body downloaded by the last Version call, or downloads it.
func (s *HTTPSource) Load(ctx context.Context) (*detection.Table, string, error) {
	d := s.takePending()
	if d == nil {
		var err error
		if d, err = s.fetch(ctx); err != nil {
			return nil, "", err
		}
	}
	table, err := ParseCSV(bytes.NewReader(d.body), s.opts)
	if err != nil {
		return nil, "", s.loadError(err, "parse").Build()
	}
	return table, d.version, nil
}

func (s *HTTPSource) fetch(ctx context.Context) (*download, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, s.loadError(err, "fetch").Build()
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, s.loadError(fmt.Errorf("unexpected HTTP status %d", resp.StatusCode), "fetch").
			Context("status_code", resp.StatusCode).
			Build()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, s.loadError(err, "read").Build()
	}

	version := headerVersion(resp.Header)
	if version == "" {
		sum := sha256.Sum256(body)
		version = "sha256:" + hex.EncodeToString(sum[:])
	}
	return &download{body: body, version: version}, nil
}

func (s *HTTPSource) setPending(d *download) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = d
}

func (s *HTTPSource) takePending() *download {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.pending
	s.pending = nil
	return d
}

// loadError records the endpoint kind and timeout, never the URL itself.
func (s *HTTPSource) loadError(err error, operation string) *errors.ErrorBuilder {
	return newLoadError(err, operation).NetworkContext(s.url, s.client.Timeout())
}

// Close releases idle connections.
func (s *HTTPSource) Close() error {
	s.setPending(nil)
	s.client.Close()
	return nil
}

func isSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

func headerVersion(h http.Header) string {
	if etag := h.Get("ETag"); etag != "" {
		return "etag:" + etag
	}
	if lm := h.Get("Last-Modified"); lm != "" {
		return "last-modified:" + lm
	}
	return ""
}
