package challenge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akashkarthik473/scent-showdown/config"
)

// fakeProber scripts the two waits the handler performs.
type fakeProber struct {
	probeErr error // result of the presence probe
	clearErr error // result of the wait-for-gone
}

func (f *fakeProber) WaitSelector(_ context.Context, _ string, _ time.Duration) error {
	return f.probeErr
}

func (f *fakeProber) WaitSelectorGone(_ context.Context, _ string, _ time.Duration) error {
	return f.clearErr
}

func testCfg() config.ChallengeConfig {
	return config.ChallengeConfig{
		Markers:      "#challenge-running",
		ProbeTimeout: 10 * time.Millisecond,
		ClearTimeout: 10 * time.Millisecond,
		SettleDelay:  time.Millisecond,
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		probeErr error
		clearErr error
		want     Outcome
	}{
		{
			name:     "no marker found means no challenge",
			probeErr: errors.New("element not found"),
			want:     NoChallenge,
		},
		{
			name: "marker found and cleared",
			want: Cleared,
		},
		{
			name:     "marker found but never clears",
			clearErr: errors.New("still present"),
			want:     Timeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := New(testCfg())
			page := &fakeProber{probeErr: tt.probeErr, clearErr: tt.clearErr}

			got := h.Resolve(context.Background(), page)
			if got != tt.want {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolve_CancelledDuringSettle(t *testing.T) {
	t.Parallel()

	cfg := testCfg()
	cfg.SettleDelay = time.Hour // would hang without cancellation

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := New(cfg)
	got := h.Resolve(ctx, &fakeProber{})
	if got != Timeout {
		t.Errorf("Resolve() with cancelled context = %v, want %v", got, Timeout)
	}
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	cases := map[Outcome]string{
		NoChallenge: "no_challenge",
		Cleared:     "cleared",
		Timeout:     "timeout",
		Outcome(99): "unknown",
	}
	for o, want := range cases {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(o), got, want)
		}
	}
}
