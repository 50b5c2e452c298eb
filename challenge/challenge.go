// Package challenge detects and waits out anti-bot interstitials that some
// sites interpose before real content. Detection is heuristic: the handler
// probes for known marker selectors and reports an explicit outcome rather
// than a boolean, so the caller's state machine stays exhaustive.
package challenge

import (
	"context"
	"log/slog"
	"time"

	"github.com/akashkarthik473/scent-showdown/config"
)

// Outcome is the terminal state of one challenge resolution.
type Outcome int

const (
	// NoChallenge means no interstitial marker appeared within the probe
	// window. Terminal success.
	NoChallenge Outcome = iota

	// Cleared means an interstitial was detected and then disappeared
	// within the clearing window. Terminal success.
	Cleared

	// Timeout means a detected interstitial did not clear in time. The
	// handler does not retry; the navigation controller decides whether
	// to retry the whole navigation.
	Timeout
)

// String implements fmt.Stringer for log output.
func (o Outcome) String() string {
	switch o {
	case NoChallenge:
		return "no_challenge"
	case Cleared:
		return "cleared"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Prober is the subset of page operations the handler needs. Satisfied by
// *session.Session.
type Prober interface {
	WaitSelector(ctx context.Context, selector string, timeout time.Duration) error
	WaitSelectorGone(ctx context.Context, selector string, timeout time.Duration) error
}

// Handler resolves interstitials on a freshly navigated page.
type Handler struct {
	cfg config.ChallengeConfig
}

// New creates a Handler with the given tuning.
func New(cfg config.ChallengeConfig) *Handler {
	return &Handler{cfg: cfg}
}

// Resolve observes the page state after navigation. A short bounded probe
// decides whether an interstitial is present; if so, a longer bounded wait
// gives it time to clear, followed by a fixed settle delay.
func (h *Handler) Resolve(ctx context.Context, page Prober) Outcome {
	if err := page.WaitSelector(ctx, h.cfg.Markers, h.cfg.ProbeTimeout); err != nil {
		// Probe window elapsed without a marker: no interstitial.
		slog.Info("no challenge detected")
		return NoChallenge
	}

	slog.Info("challenge detected, waiting for it to clear",
		"clearTimeout", h.cfg.ClearTimeout,
	)
	if err := page.WaitSelectorGone(ctx, h.cfg.Markers, h.cfg.ClearTimeout); err != nil {
		slog.Warn("challenge did not clear in time", "error", err)
		return Timeout
	}

	// Extra settle time so the real content finishes loading behind the
	// cleared interstitial.
	select {
	case <-time.After(h.cfg.SettleDelay):
	case <-ctx.Done():
		return Timeout
	}

	slog.Info("challenge cleared")
	return Cleared
}
