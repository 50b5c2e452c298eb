package models

// Candidate is one fragrance extracted from a listing card, before any
// asset download or persistence. ImageURL may be empty; a card without an
// image still produces a valid candidate.
type Candidate struct {
	// ID is the catalog's external identifier, parsed from the item URL.
	// It is the idempotency key for persistence.
	ID int

	// Name is the display name taken from the card's link text.
	Name string

	// ImageURL is the remote image source, or "" when the card has none.
	ImageURL string
}

// Fragrance is the persisted form of a Candidate.
type Fragrance struct {
	ID             int
	Name           string
	ImageURL       string
	LocalImagePath string
}

// WinCount pairs a fragrance id with its accumulated tournament wins.
// Written by the voting UI, read back for the hall of fame.
type WinCount struct {
	ID   int
	Wins int
}
