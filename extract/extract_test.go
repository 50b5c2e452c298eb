package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/akashkarthik473/scent-showdown/config"
	"github.com/akashkarthik473/scent-showdown/models"
)

func testExtractCfg() config.ExtractConfig {
	return config.ExtractConfig{
		CardSelectors: []string{
			"div.card-product",
			".card-product",
			"div[class*='card']",
			"div[class*='product']",
		},
		LinkSelector: "a[href*='/perfume/']",
		MaxRecords:   20,
	}
}

func collect(e *Engine, html, winning string) []models.Candidate {
	var out []models.Candidate
	for c := range e.Records(html, winning) {
		out = append(out, c)
	}
	return out
}

func TestNewEngine_InvalidSelector(t *testing.T) {
	t.Parallel()

	cfg := testExtractCfg()
	cfg.CardSelectors = []string{"div[[["}
	if _, err := NewEngine(cfg); err == nil {
		t.Fatal("expected error for invalid selector")
	}
}

func TestRecords_ValidCards(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<div class="card-product">
			<a href="/perfume/Acme/Noir-10.html">Acme Noir</a>
			<img src="https://img.example/10.jpg">
		</div>
		<div class="card-product">
			<a href="/perfume/Acme/Blanc-11.html">Acme Blanc</a>
			<img src="https://img.example/11.jpg">
		</div>
		<div class="card-product">
			<a href="/perfume/Acme/Rouge-12.html">Acme Rouge</a>
			<img src="https://img.example/12.jpg">
		</div>
	</body></html>`

	e, err := NewEngine(testExtractCfg())
	if err != nil {
		t.Fatal(err)
	}

	got := collect(e, html, "")
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}

	want := []models.Candidate{
		{ID: 10, Name: "Acme Noir", ImageURL: "https://img.example/10.jpg"},
		{ID: 11, Name: "Acme Blanc", ImageURL: "https://img.example/11.jpg"},
		{ID: 12, Name: "Acme Rouge", ImageURL: "https://img.example/12.jpg"},
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("candidate %d = %+v, want %+v", i, got[i], w)
		}
	}
}

func TestRecords_MalformedCardsAreIsolated(t *testing.T) {
	t.Parallel()

	// One card without an anchor, one whose href has no trailing integer,
	// one without an image, one fully valid.
	html := `<html><body>
		<div class="card-product"><span>no anchor here</span></div>
		<div class="card-product"><a href="/perfume/brand/mystery.html">Mystery</a></div>
		<div class="card-product"><a href="/perfume/Acme/Vert-77.html">Acme Vert</a></div>
		<div class="card-product">
			<a href="/perfume/Acme/Or-78.html">Acme Or</a>
			<img src="https://img.example/78.jpg">
		</div>
	</body></html>`

	e, err := NewEngine(testExtractCfg())
	if err != nil {
		t.Fatal(err)
	}

	got := collect(e, html, "")
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}
	if got[0].ID != 77 || got[0].ImageURL != "" {
		t.Errorf("imageless card = %+v, want id 77 with empty image URL", got[0])
	}
	if got[1].ID != 78 || got[1].ImageURL == "" {
		t.Errorf("valid card = %+v, want id 78 with image", got[1])
	}
}

func TestRecords_SelectorFallback(t *testing.T) {
	t.Parallel()

	// Markup matches only the second selector (.card-product via a span,
	// not a div), so the first strategy must be skipped.
	html := `<html><body>
		<span class="card-product">
			<a href="/perfume/Acme/Bleu-5.html">Acme Bleu</a>
		</span>
	</body></html>`

	e, err := NewEngine(testExtractCfg())
	if err != nil {
		t.Fatal(err)
	}

	got := collect(e, html, "")
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate via fallback selector, got %d", len(got))
	}
	if got[0].ID != 5 || got[0].Name != "Acme Bleu" {
		t.Errorf("candidate = %+v", got[0])
	}
}

func TestRecords_WinningSelectorPreferred(t *testing.T) {
	t.Parallel()

	// Both selectors match, but the navigator's winning selector picks
	// the generic card class and must be honored first.
	html := `<html><body>
		<div class="card-wide">
			<a href="/perfume/Acme/Gris-9.html">Acme Gris</a>
		</div>
	</body></html>`

	e, err := NewEngine(testExtractCfg())
	if err != nil {
		t.Fatal(err)
	}

	got := collect(e, html, "div[class*='card']")
	if len(got) != 1 || got[0].ID != 9 {
		t.Fatalf("expected candidate 9 via winning selector, got %+v", got)
	}
}

func TestRecords_CapLimitsOutput(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 1; i <= 50; i++ {
		fmt.Fprintf(&b, `<div class="card-product"><a href="/perfume/a/b-%d.html">Item %d</a></div>`, i, i)
	}
	b.WriteString("</body></html>")

	cfg := testExtractCfg()
	cfg.MaxRecords = 20
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatal(err)
	}

	got := collect(e, b.String(), "")
	if len(got) != 20 {
		t.Errorf("expected cap of 20 candidates, got %d", len(got))
	}
}

func TestRecords_EarlyBreakStopsIteration(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<div class="card-product"><a href="/perfume/a/b-1.html">One</a></div>
		<div class="card-product"><a href="/perfume/a/b-2.html">Two</a></div>
	</body></html>`

	e, err := NewEngine(testExtractCfg())
	if err != nil {
		t.Fatal(err)
	}

	seen := 0
	for range e.Records(html, "") {
		seen++
		break
	}
	if seen != 1 {
		t.Errorf("expected iteration to stop after break, saw %d", seen)
	}
}

func TestParseItemID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		href    string
		want    int
		wantErr bool
	}{
		{href: "/perfume/Acme/Noir-12345.html", want: 12345},
		{href: "https://catalog.example/perfume/Acme/Noir-7.html", want: 7},
		{href: "/perfume/Acme/Noir-42.html?ref=search#top", want: 42},
		{href: "/perfume/Acme/NoTrailingID.html", wantErr: true},
		{href: "/perfume/Acme/Noir-abc.html", wantErr: true},
		{href: "/perfume/Acme/Noir-.html", wantErr: true},
		{href: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			t.Parallel()

			got, err := ParseItemID(tt.href)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got id %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseItemID(%q) = %d, want %d", tt.href, got, tt.want)
			}
		})
	}
}
