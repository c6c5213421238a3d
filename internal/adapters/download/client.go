// Package download fetches bottles from the artifact server over HTTP.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultHeaderTimeout bounds the wait for the server to answer a request.
// Transferring the body is bounded by the caller's context only.
const DefaultHeaderTimeout = 30 * time.Second

// Client implements ports.Downloader.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	retry   Retry
	logger  ports.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithRetry replaces the retry policy.
func WithRetry(r Retry) Option {
	return func(c *Client) { c.retry = r }
}

// NewClient creates a Client for the artifact server at baseURL.
func NewClient(baseURL string, logger ports.Logger, opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport
	transport.ResponseHeaderTimeout = DefaultHeaderTimeout

	c := &Client{
		http:    &http.Client{Transport: transport},
		baseURL: baseURL,
		retry:   DefaultRetry,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns {base}/{name}/{os}/{arch}/v{version}.{ext}.
func (c *Client) URL(req domain.ArtifactRequest) string {
	return fmt.Sprintf("%s/%s/%s/%s/v%s.%s",
		c.baseURL, req.Name, req.Host.OS, req.Host.Arch, req.Version, req.Compression.Ext())
}

// resetter is implemented by *os.File. A download is only retried after a partial write
// when the destination can be rewound.
type resetter interface {
	Truncate(size int64) error
	Seek(offset int64, whence int) (int64, error)
}

// Download streams url into w, retrying transient failures.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) error {
	cw := &countingWriter{w: w}
	attempts, err := c.retry.Do(ctx, func(attempt int) error {
		if attempt > 1 {
			if err := rewind(cw); err != nil {
				return err
			}
		}
		err := c.fetch(ctx, url, cw)
		if err != nil && IsRetryable(err) && attempt < c.retry.Attempts {
			c.logger.Warn(fmt.Sprintf("retrying %s (attempt %d/%d): %v", url, attempt+1, c.retry.Attempts, err))
		}
		return err
	})
	if err == nil {
		return nil
	}
	if !IsRetryable(err) {
		return err
	}
	return zerr.With(zerr.With(zerr.Wrap(err, domain.ErrDownloadFailed.Error()), "url", url), "attempts", attempts)
}

func rewind(cw *countingWriter) error {
	if cw.n == 0 {
		return nil
	}
	r, ok := cw.w.(resetter)
	if !ok {
		return zerr.New("cannot rewind partially written destination")
	}
	if err := r.Truncate(0); err != nil {
		return zerr.Wrap(err, "failed to truncate destination")
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return zerr.Wrap(err, "failed to rewind destination")
	}
	cw.n = 0
	return nil
}

func (c *Client) fetch(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to build request"), "url", url)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return retryable(err)
	}
	defer resp.Body.Close() //nolint:errcheck // Body is fully consumed or abandoned

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return zerr.With(domain.ErrArtifactNotFound, "url", url)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return retryable(statusError(url, resp.StatusCode))
	default:
		return statusError(url, resp.StatusCode)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return retryable(zerr.Wrap(err, "failed to read response body"))
	}
	return nil
}

func statusError(url string, code int) error {
	return zerr.With(zerr.With(domain.ErrDownloadStatus, "url", url), "status", strconv.Itoa(code))
}

// countingWriter records how much of an attempt reached the destination.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
