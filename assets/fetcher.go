// Package assets downloads the remote image referenced by a record into
// local content storage. The deterministic "{id}.jpg" path doubles as the
// dedup marker: if the file exists, the fetch is a no-op. Download
// failures are logged and swallowed; a record may be stored with no local
// image, but an asset failure never aborts record persistence.
package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	tls2 "github.com/refraction-networking/utls"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/akashkarthik473/scent-showdown/config"
)

// maxAssetSize caps a single image download.
const maxAssetSize = 10 * 1024 * 1024 // 10 MB

// Fetcher downloads record images. Safe for concurrent use across
// disjoint ids; concurrent calls for the same id are collapsed into one
// download.
type Fetcher struct {
	dir       string
	timeout   time.Duration
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	group     singleflight.Group
}

// New creates a Fetcher and ensures the target directory exists.
func New(cfg config.AssetConfig, userAgent string) (*Fetcher, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}

	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr)
		},
	}
	if cfg.Proxy != "" {
		if proxyURL, err := url.Parse(cfg.Proxy); err == nil &&
			(proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	interval := cfg.FetchInterval
	if interval <= 0 {
		interval = time.Second
	}

	return &Fetcher{
		dir:       cfg.Dir,
		timeout:   cfg.Timeout,
		userAgent: userAgent,
		client:    &http.Client{Transport: transport},
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
	}, nil
}

// Path returns the deterministic local path for an id.
func (f *Fetcher) Path(id int) string {
	return filepath.Join(f.dir, fmt.Sprintf("%d.jpg", id))
}

// Fetch downloads the image for id from rawURL and returns the local
// path, or "" when there is nothing to store. Never returns an error: any
// transport or status failure is logged and yields "".
func (f *Fetcher) Fetch(ctx context.Context, id int, rawURL string) string {
	if rawURL == "" {
		slog.Warn("no image URL for record", "id", id)
		return ""
	}

	path := f.Path(id)
	if _, err := os.Stat(path); err == nil {
		slog.Debug("image already fetched", "id", id, "path", path)
		return path
	}

	// Collapse concurrent fetches for the same id into one download.
	result, err, _ := f.group.Do(path, func() (any, error) {
		return f.download(ctx, id, rawURL, path)
	})
	if err != nil {
		slog.Error("image download failed", "id", id, "url", rawURL, "error", err)
		return ""
	}
	return result.(string)
}

// download performs the actual network read and atomic write.
func (f *Fetcher) download(ctx context.Context, id int, rawURL, path string) (string, error) {
	// Re-check after winning the singleflight slot: a concurrent caller
	// may have completed the write already.
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	// Write-then-rename so a crash mid-write never leaves a partial file
	// masquerading as a completed fetch.
	tmp, err := os.CreateTemp(f.dir, fmt.Sprintf(".%d-*.tmp", id))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("rename into place: %w", err)
	}

	slog.Info("image downloaded", "id", id, "path", path, "bytes", len(body))
	return path, nil
}

// dialTLSChrome establishes a TLS connection with a Chrome fingerprint via
// utls, so asset requests present the same TLS shape as a real browser.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName: host,
	}, tls2.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
