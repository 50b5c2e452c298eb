// Package navigator drives the bounded retry loop that turns "navigate to
// a hostile page" into "confirmed real content or a fatal error". Each
// attempt navigates, resolves any interstitial, checks for block markers
// and probes the ordered card-selector list; failed attempts back off with
// widening jitter until the attempt cap is exhausted.
package navigator

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/akashkarthik473/scent-showdown/challenge"
	"github.com/akashkarthik473/scent-showdown/config"
	"github.com/akashkarthik473/scent-showdown/models"
)

// Page is the rendering surface the navigator drives. Satisfied by
// *session.Session.
type Page interface {
	challenge.Prober
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	HTML() (string, error)
	Scroll(ctx context.Context)
	Screenshot(path string) error
}

// Resolver decides whether an anti-bot interstitial is present and waits
// it out. Satisfied by *challenge.Handler.
type Resolver interface {
	Resolve(ctx context.Context, page challenge.Prober) challenge.Outcome
}

// Result is a successful acquisition: confirmed markup plus the selector
// that matched the card container.
type Result struct {
	HTML     string
	Selector string
	Attempts []models.Attempt
}

// Navigator runs the attempt loop against one page.
type Navigator struct {
	page      Page
	resolver  Resolver
	target    config.TargetConfig
	retry     config.RetryConfig
	selectors []string

	// sleep is injectable so tests can run the loop without real delays.
	sleep func(ctx context.Context, d time.Duration) bool
}

// New creates a Navigator. selectors is the ordered fallback list for the
// item-card container; the first one that matches wins.
func New(page Page, resolver Resolver, target config.TargetConfig, retry config.RetryConfig, selectors []string) *Navigator {
	return &Navigator{
		page:      page,
		resolver:  resolver,
		target:    target,
		retry:     retry,
		selectors: selectors,
		sleep:     sleepCtx,
	}
}

// Run attempts to reach a state where real content is present. It makes at
// most MaxAttempts full attempts and returns ACQUISITION_FAILED after
// exhausting them; the pipeline never extracts unconfirmed content.
func (n *Navigator) Run(ctx context.Context) (*Result, error) {
	attempts := make([]models.Attempt, 0, n.retry.MaxAttempts)

	for i := 1; i <= n.retry.MaxAttempts; i++ {
		if i > 1 {
			delay := backoffDelay(n.retry.BackoffBase, i-1)
			slog.Info("backing off before retry", "attempt", i, "delay", delay)
			if !n.sleep(ctx, delay) {
				return nil, ctx.Err()
			}
		}

		started := time.Now()
		outcome, result := n.attempt(ctx, i)
		attempt := models.Attempt{
			Number:  i,
			URL:     n.target.URL,
			Outcome: outcome,
			Elapsed: time.Since(started),
		}
		attempts = append(attempts, attempt)
		slog.Info("navigation attempt finished",
			"attempt", i,
			"outcome", outcome.String(),
			"elapsed", attempt.Elapsed,
		)

		if outcome == models.OutcomeSuccess {
			result.Attempts = attempts
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, models.NewIngestError(
		models.ErrCodeAcquisitionFailed,
		"no confirmed content after exhausting navigation attempts",
		nil,
	)
}

// attempt performs one full navigation cycle and classifies its outcome.
func (n *Navigator) attempt(ctx context.Context, number int) (models.AttemptOutcome, *Result) {
	// Randomized pre-navigation delay defeats naive request-timing
	// detection.
	if !n.sleep(ctx, jitter(n.retry.PreNavDelayMin, n.retry.PreNavDelayMax)) {
		return models.OutcomeNetworkError, nil
	}

	if err := n.page.Navigate(ctx, n.target.URL, n.target.NavigationTimeout); err != nil {
		slog.Warn("navigation failed", "attempt", number, "error", err)
		return models.OutcomeNetworkError, nil
	}

	if outcome := n.resolver.Resolve(ctx, n.page); outcome == challenge.Timeout {
		return models.OutcomeChallengeTimeout, nil
	}

	n.page.Scroll(ctx)

	if n.target.ScreenshotPath != "" {
		if err := n.page.Screenshot(n.target.ScreenshotPath); err != nil {
			slog.Warn("debug screenshot failed", "error", err)
		}
	}

	rawHTML, err := n.page.HTML()
	if err != nil {
		slog.Warn("failed to read page content", "attempt", number, "error", err)
		return models.OutcomeNetworkError, nil
	}

	if marker, blocked := DetectBlock(rawHTML, n.retry.BlockMarkers); blocked {
		slog.Error("bot-detection marker found", "marker", marker)
		if strings.EqualFold(marker, "captcha") {
			slog.Info("captcha detected, cooling down", "cooldown", n.retry.CaptchaCooldown)
			n.sleep(ctx, n.retry.CaptchaCooldown)
		}
		return models.OutcomeBlocked, nil
	}

	for _, selector := range n.selectors {
		slog.Debug("probing card selector", "selector", selector)
		if err := n.page.WaitSelector(ctx, selector, n.retry.SelectorTimeout); err != nil {
			continue
		}
		slog.Info("card selector matched", "selector", selector)

		// Re-read the markup: the winning probe may have waited for
		// late-rendered content.
		finalHTML, err := n.page.HTML()
		if err != nil {
			finalHTML = rawHTML
		}
		return models.OutcomeSuccess, &Result{HTML: finalHTML, Selector: selector}
	}

	slog.Warn("no card selector matched", "attempt", number)
	return models.OutcomeNoContent, nil
}

// backoffDelay returns the delay before retry number failed+1, after
// `failed` failed attempts. The window doubles each time and the jitter
// spread stays below the next window's floor, so successive delays never
// decrease.
func backoffDelay(base time.Duration, failed int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	window := base << (failed - 1)
	return window + rand.N(window/2+1)
}

// jitter returns a random duration in [min, max).
func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min)
}

// sleepCtx sleeps for d or until ctx is cancelled. Returns false when
// interrupted.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
