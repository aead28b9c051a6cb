// Package fetch downloads validated remote media into scoped temporary files.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"os"
	"sync"
	"syscall"
	"time"

	"audio-transcription-worker/internal/observability/metrics"
	"audio-transcription-worker/internal/security"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds the whole download, connect included.
const DefaultTimeout = 300 * time.Second

// Media is a downloaded audio file owned by the current invocation.
// The owner must call Cleanup exactly once; Cleanup itself is idempotent.
type Media struct {
	Path      string
	SizeBytes int64

	cleanup sync.Once
}

// Cleanup removes the temporary file. Safe to call more than once.
func (m *Media) Cleanup() {
	m.cleanup.Do(func() {
		if err := os.Remove(m.Path); err != nil && !os.IsNotExist(err) {
			log.Error().Err(err).Str("path", m.Path).Msg("Failed to remove temporary media file")
		}
	})
}

// Config holds fetcher configuration.
type Config struct {
	// Timeout is the overall budget for one download. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxBytes caps the downloaded body size. Zero means unlimited.
	MaxBytes int64
	// GuardDial re-validates every resolved IP right before the socket
	// connects, so a hostname that passed validation cannot rebind to a
	// private or metadata address between validation and fetch.
	GuardDial bool
}

// Fetcher performs single-attempt streamed downloads of remote media.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	metrics  *metrics.Metrics
}

// New creates a fetcher. No retries are performed at this layer; callers
// retry the whole invocation if they want retries.
func New(cfg Config) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.GuardDial {
		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			Control:   guardResolvedAddr,
			DualStack: true,
		}
		transport.DialContext = dialer.DialContext
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		maxBytes: cfg.MaxBytes,
		metrics:  metrics.DefaultMetrics,
	}
}

// guardResolvedAddr rejects connections to private, loopback, link-local or
// metadata addresses. It runs after DNS resolution, per connection attempt.
func guardResolvedAddr(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("refusing dial to unparseable address %q: %w", address, err)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("refusing dial to unparseable address %q: %w", address, err)
	}
	if verdict := security.CheckAddr(addr); !verdict.Allowed {
		return fmt.Errorf("refusing dial to %s: %s", address, verdict.Reason)
	}
	return nil
}

// Fetch performs one streamed GET of url and writes the body incrementally
// to a uniquely named temporary file. The caller owns the returned Media
// and must release it with Cleanup.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Media, error) {
	start := time.Now()

	media, err := f.fetch(ctx, url)
	if err != nil {
		f.metrics.RecordDownload(0, time.Since(start).Seconds(), err)
		return nil, err
	}

	f.metrics.RecordDownload(media.SizeBytes, time.Since(start).Seconds(), nil)
	log.Debug().
		Str("url", url).
		Int64("bytes", media.SizeBytes).
		Dur("duration", time.Since(start)).
		Msg("Media downloaded")
	return media, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) (*Media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download failed: unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "audio-*.media")
	if err != nil {
		return nil, fmt.Errorf("create temporary file: %w", err)
	}

	body := resp.Body
	if f.maxBytes > 0 {
		// Read one byte past the cap so oversize bodies are detectable.
		body = io.NopCloser(io.LimitReader(resp.Body, f.maxBytes+1))
	}

	n, err := io.Copy(tmp, body)
	closeErr := tmp.Close()

	switch {
	case err != nil:
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("download failed after %d bytes: %w", n, err)
	case closeErr != nil:
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("write temporary file: %w", closeErr)
	case f.maxBytes > 0 && n > f.maxBytes:
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("download exceeds %d byte limit", f.maxBytes)
	}

	return &Media{Path: tmp.Name(), SizeBytes: n}, nil
}
