// Package identity selects the outbound browser identity for a session:
// user agent, locale, timezone, viewport and geolocation. Selection is
// pure; the chosen Identity is immutable and scoped to one session.
package identity

import "math/rand/v2"

// Viewport is the emulated window size.
type Viewport struct {
	Width  int
	Height int
}

// Geolocation is the emulated position reported to the page.
type Geolocation struct {
	Latitude  float64
	Longitude float64
}

// Identity is the set of client-presented attributes used to appear as an
// ordinary browser. Immutable once chosen.
type Identity struct {
	UserAgent      string
	AcceptLanguage string
	Locale         string
	Timezone       string
	Platform       string
	Viewport       Viewport
	Geolocation    Geolocation
}

// profiles are desktop browser identities known to pass common anti-bot
// filters. The user agent and navigator platform must agree; a Mac user
// agent reporting Win32 is itself a detection signal. Keep versions
// reasonably current.
var profiles = []struct {
	userAgent string
	platform  string
}{
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36", "Win32"},
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36", "Win32"},
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:132.0) Gecko/20100101 Firefox/132.0", "Win32"},
	{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15", "MacIntel"},
}

// Pick selects an Identity using the package-level RNG.
func Pick() Identity {
	return PickFrom(rand.IntN)
}

// PickFrom selects an Identity using the given intn function, which must
// behave like rand.IntN. Injectable for deterministic tests.
func PickFrom(intn func(n int) int) Identity {
	p := profiles[intn(len(profiles))]
	return Identity{
		UserAgent:      p.userAgent,
		AcceptLanguage: "en-US,en;q=0.9",
		Locale:         "en-US",
		Timezone:       "America/New_York",
		Platform:       p.platform,
		Viewport:       Viewport{Width: 1920, Height: 1080},
		Geolocation:    Geolocation{Latitude: 40.7128, Longitude: -74.0060},
	}
}
