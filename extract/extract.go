// Package extract maps raw listing markup to fragrance candidates. The
// card container is located through an ordered list of selector strategies
// tried in sequence (first success wins), so markup-shape changes on the
// remote site degrade gracefully instead of breaking extraction outright.
package extract

import (
	"fmt"
	"iter"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/akashkarthik473/scent-showdown/config"
	"github.com/akashkarthik473/scent-showdown/models"
)

// strategy is one pre-compiled card selector in the fallback order.
type strategy struct {
	raw     string
	matcher cascadia.Selector
}

// Engine turns markup into candidates.
type Engine struct {
	strategies []strategy
	linkRaw    string
	link       cascadia.Selector
	cap        int
}

// NewEngine compiles the configured selectors up front so an invalid
// selector fails at startup, not mid-run.
func NewEngine(cfg config.ExtractConfig) (*Engine, error) {
	if len(cfg.CardSelectors) == 0 {
		return nil, models.NewIngestError(models.ErrCodeInvalidInput, "no card selectors configured", nil)
	}

	strategies := make([]strategy, 0, len(cfg.CardSelectors))
	for _, raw := range cfg.CardSelectors {
		m, err := cascadia.Compile(raw)
		if err != nil {
			return nil, models.NewIngestError(
				models.ErrCodeInvalidInput,
				fmt.Sprintf("invalid card selector %q", raw),
				err,
			)
		}
		strategies = append(strategies, strategy{raw: raw, matcher: m})
	}

	link, err := cascadia.Compile(cfg.LinkSelector)
	if err != nil {
		return nil, models.NewIngestError(
			models.ErrCodeInvalidInput,
			fmt.Sprintf("invalid link selector %q", cfg.LinkSelector),
			err,
		)
	}

	maxRecords := cfg.MaxRecords
	if maxRecords <= 0 {
		maxRecords = 20
	}

	return &Engine{
		strategies: strategies,
		linkRaw:    cfg.LinkSelector,
		link:       link,
		cap:        maxRecords,
	}, nil
}

// Records returns a lazy, finite sequence of candidates parsed from
// rawHTML, capped at the configured maximum. winning, when non-empty, is
// the selector the navigator confirmed and is tried first; if it no longer
// matches, the full ordered list is retried. Malformed cards are skipped,
// never fatal.
func (e *Engine) Records(rawHTML, winning string) iter.Seq[models.Candidate] {
	return func(yield func(models.Candidate) bool) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
		if err != nil {
			slog.Error("failed to parse markup", "error", err)
			return
		}

		cards, selector := e.cards(doc, winning)
		if cards == nil {
			slog.Warn("no card selector matched the markup")
			return
		}
		slog.Info("extracting cards", "selector", selector, "count", cards.Length())

		yielded := 0
		cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
			if yielded >= e.cap {
				return false
			}
			candidate, ok := e.candidate(card)
			if !ok {
				return true
			}
			yielded++
			return yield(candidate)
		})
	}
}

// cards locates the card nodes, preferring the winning selector and then
// falling back through the ordered strategy list.
func (e *Engine) cards(doc *goquery.Document, winning string) (*goquery.Selection, string) {
	if winning != "" {
		for _, st := range e.strategies {
			if st.raw != winning {
				continue
			}
			if sel := doc.FindMatcher(st.matcher); sel.Length() > 0 {
				return sel, st.raw
			}
		}
	}
	for _, st := range e.strategies {
		if st.raw == winning {
			continue
		}
		if sel := doc.FindMatcher(st.matcher); sel.Length() > 0 {
			return sel, st.raw
		}
	}
	return nil, ""
}

// candidate maps one card node to a Candidate. A card without a catalog
// anchor, an empty name, or an unparsable id yields nothing; a missing
// image is tolerated.
func (e *Engine) candidate(card *goquery.Selection) (models.Candidate, bool) {
	link := card.FindMatcher(e.link).First()
	if link.Length() == 0 {
		slog.Debug("card has no catalog link, skipping")
		return models.Candidate{}, false
	}

	name := strings.TrimSpace(link.Text())
	if name == "" {
		slog.Debug("card link has no visible name, skipping")
		return models.Candidate{}, false
	}

	href, _ := link.Attr("href")
	id, err := ParseItemID(href)
	if err != nil {
		slog.Warn("could not parse item id from link", "href", href, "error", err)
		return models.Candidate{}, false
	}

	imageURL, _ := card.Find("img").First().Attr("src")
	if imageURL == "" {
		slog.Warn("card has no image", "name", name, "id", id)
	}

	return models.Candidate{ID: id, Name: name, ImageURL: imageURL}, true
}

// ParseItemID derives the external id from a catalog item path: the
// trailing dash-separated integer segment, e.g. "/perfume/Acme/Noir-12345.html"
// yields 12345.
func ParseItemID(href string) (int, error) {
	s := href
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, ".html")

	idx := strings.LastIndexByte(s, '-')
	if idx < 0 || idx == len(s)-1 {
		return 0, fmt.Errorf("no trailing id segment in %q", href)
	}

	id, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("non-numeric id segment in %q: %w", href, err)
	}
	return id, nil
}
