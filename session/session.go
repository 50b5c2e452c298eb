// Package session owns a single rendering browser and page for one ingest
// run. The session is configured with a chosen identity and a fixed set of
// anti-fingerprinting patches before any navigation happens.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/akashkarthik473/scent-showdown/config"
	"github.com/akashkarthik473/scent-showdown/identity"
	"github.com/akashkarthik473/scent-showdown/models"
)

// Session wraps one browser process and exactly one page. It is not safe
// for concurrent use; the pipeline drives one navigation at a time.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	id      identity.Identity
}

// Open launches the browser, creates the page, and installs the identity
// and stealth patches. The patch order matters: everything here must be in
// place before the first navigation, or it never takes effect.
//
// On any setup failure the browser is torn down before the error returns,
// so a failed Open never leaks a Chrome process.
func Open(cfg config.BrowserConfig, id identity.Identity) (*Session, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI,IsolateOrigins,site-per-process")
	l.Set(flags.Flag("disable-site-isolation-trials"))
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", id.Viewport.Width, id.Viewport.Height))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewIngestError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewIngestError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return nil, models.NewIngestError(
			models.ErrCodeBrowserCrash,
			"failed to create page",
			err,
		)
	}

	s := &Session{browser: browser, page: page, id: id}
	if err := s.applyIdentity(); err != nil {
		s.Close()
		return nil, models.NewIngestError(
			models.ErrCodeBrowserCrash,
			"failed to apply session identity",
			err,
		)
	}

	// Stealth patches MUST be installed before the first navigation.
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}
	if _, err := page.EvalOnNewDocument(fingerprintJS); err != nil {
		slog.Warn("fingerprint patch injection failed", "error", err)
	}

	// Behavioral noise, not correctness-critical.
	s.wiggle()

	slog.Info("session ready", "userAgent", id.UserAgent, "timezone", id.Timezone)
	return s, nil
}

// applyIdentity configures the page with the chosen identity: user agent,
// viewport, timezone, geolocation and browser-like request headers.
func (s *Session) applyIdentity() error {
	if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      s.id.UserAgent,
		AcceptLanguage: s.id.AcceptLanguage,
		Platform:       s.id.Platform,
	}); err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}

	if err := s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.id.Viewport.Width,
		Height:            s.id.Viewport.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}

	if err := (proto.EmulationSetTimezoneOverride{
		TimezoneID: s.id.Timezone,
	}).Call(s.page); err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}

	accuracy := float64(100)
	if err := (proto.EmulationSetGeolocationOverride{
		Latitude:  &s.id.Geolocation.Latitude,
		Longitude: &s.id.Geolocation.Longitude,
		Accuracy:  &accuracy,
	}).Call(s.page); err != nil {
		return fmt.Errorf("set geolocation: %w", err)
	}

	headers := map[string]string{
		"Accept-Language":           s.id.AcceptLanguage,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
		"DNT":                       "1",
	}
	return proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(headers),
	}.Call(s.page)
}

// Navigate loads the target URL and waits for the DOM to stop mutating.
// A DOM that never stabilises is not fatal; the caller inspects content.
func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p := s.page.Context(ctx).Timeout(timeout)
	if err := p.Navigate(url); err != nil {
		return err
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
	return nil
}

// HTML returns the current rendered markup.
func (s *Session) HTML() (string, error) {
	return s.page.HTML()
}

// WaitSelector blocks until an element matching selector appears, or the
// timeout elapses.
func (s *Session) WaitSelector(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := s.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return err
	}
	_ = el.Release()
	return nil
}

// WaitSelectorGone polls until no element matches selector, or the timeout
// elapses. Rod has no native "wait hidden by selector", so this polls the
// same way the page would be observed by a human refreshing their view.
func (s *Session) WaitSelectorGone(ctx context.Context, selector string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		has, el, err := s.page.Context(ctx).Has(selector)
		if err != nil {
			return err
		}
		if el != nil {
			_ = el.Release()
		}
		if !has {
			return nil
		}
		if !sleepCtx(ctx, 500*time.Millisecond) {
			return ctx.Err()
		}
	}
	return fmt.Errorf("selector %q still present after %s", selector, timeout)
}

// Screenshot writes a PNG of the current viewport to path. Best-effort
// diagnostic output.
func (s *Session) Screenshot(path string) error {
	data, err := s.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Close releases the page and kills the browser process. Safe to call on a
// partially constructed session; never returns an error because teardown
// must run on every exit path.
func (s *Session) Close() {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.browser != nil {
		_ = s.browser.Close()
	}
	slog.Info("session closed")
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// sleepCtx sleeps for d or until ctx is cancelled. Returns false when
// interrupted by cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
