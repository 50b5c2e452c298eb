package session

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/go-rod/rod/lib/proto"
)

// wiggle performs a short randomized sequence of pointer movements after
// session setup. Purely behavioral noise; failures are logged and ignored.
func (s *Session) wiggle() {
	for range 3 {
		x := float64(rand.IntN(s.id.Viewport.Width))
		y := float64(rand.IntN(s.id.Viewport.Height))
		if err := s.page.Mouse.MoveLinear(proto.Point{X: x, Y: y}, 25); err != nil {
			slog.Debug("pointer move failed", "error", err)
			return
		}
		time.Sleep(jitter(500*time.Millisecond, 1500*time.Millisecond))
	}
}

// Scroll performs a short simulated scroll sequence with human-like pauses.
// Errors never propagate; scrolling is defensive, not part of control flow.
func (s *Session) Scroll(ctx context.Context) {
	for range 3 {
		delta := float64(100 + rand.IntN(200))
		if err := s.page.Context(ctx).Mouse.Scroll(0, delta, 5); err != nil {
			slog.Debug("scroll failed", "error", err)
			return
		}
		if !sleepCtx(ctx, jitter(time.Second, 3*time.Second)) {
			return
		}
	}
}

// jitter returns a random duration in [min, max).
func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min)
}
