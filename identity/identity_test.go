package identity

import "testing"

func TestPickFrom_Deterministic(t *testing.T) {
	t.Parallel()

	fixed := func(n int) int { return 0 }
	a := PickFrom(fixed)
	b := PickFrom(fixed)

	if a != b {
		t.Errorf("same intn produced different identities: %+v vs %+v", a, b)
	}
	if a.UserAgent != profiles[0].userAgent {
		t.Errorf("expected first user agent, got %q", a.UserAgent)
	}
}

func TestPick_AlwaysComplete(t *testing.T) {
	t.Parallel()

	for range 20 {
		id := Pick()
		if id.UserAgent == "" {
			t.Fatal("empty user agent")
		}
		if id.Locale == "" || id.Timezone == "" || id.AcceptLanguage == "" {
			t.Fatalf("incomplete identity: %+v", id)
		}
		if id.Viewport.Width <= 0 || id.Viewport.Height <= 0 {
			t.Fatalf("invalid viewport: %+v", id.Viewport)
		}
	}
}

func TestPickFrom_CoversAllProfiles(t *testing.T) {
	t.Parallel()

	for i := range profiles {
		id := PickFrom(func(n int) int { return i % n })
		if id.UserAgent != profiles[i].userAgent {
			t.Errorf("index %d: got %q, want %q", i, id.UserAgent, profiles[i].userAgent)
		}
		if id.Platform != profiles[i].platform {
			t.Errorf("index %d: platform %q does not match user agent %q", i, id.Platform, id.UserAgent)
		}
	}
}
