package models

import "time"

// AttemptOutcome classifies a single navigation attempt. Detection of
// challenges and blocks is heuristic, so the outcomes are an explicit
// enumeration rather than booleans.
type AttemptOutcome int

const (
	// OutcomeSuccess means real content was confirmed on the page.
	OutcomeSuccess AttemptOutcome = iota

	// OutcomeChallengeTimeout means an interstitial was detected but did
	// not clear within the allotted wait.
	OutcomeChallengeTimeout

	// OutcomeBlocked means the page content contained a known
	// bot-detection marker.
	OutcomeBlocked

	// OutcomeNetworkError means navigation itself failed or returned no
	// usable response.
	OutcomeNetworkError

	// OutcomeNoContent means the page loaded but none of the known card
	// selectors matched.
	OutcomeNoContent
)

// String implements fmt.Stringer for log output.
func (o AttemptOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeChallengeTimeout:
		return "challenge_timeout"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeNetworkError:
		return "network_error"
	case OutcomeNoContent:
		return "no_content"
	default:
		return "unknown"
	}
}

// Attempt records the outcome of one navigation attempt. Attempts are
// never persisted; they feed backoff decisions and logging only.
type Attempt struct {
	Number  int
	URL     string
	Outcome AttemptOutcome
	Elapsed time.Duration
}
