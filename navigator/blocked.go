package navigator

import (
	"strings"

	"golang.org/x/net/html"
)

// DetectBlock scans the page's visible text and title for known
// bot-detection markers, case-insensitively. It returns the first marker
// found. Scanning visible text rather than raw markup avoids false
// positives from marker words inside script bundles.
func DetectBlock(rawHTML string, markers []string) (string, bool) {
	text := strings.ToLower(visibleText(rawHTML))
	for _, marker := range markers {
		if strings.Contains(text, strings.ToLower(marker)) {
			return marker, true
		}
	}
	return "", false
}

// visibleText extracts the text a user would see: the <title> plus all
// body text, with <script>/<style>/<noscript> content stripped.
func visibleText(rawHTML string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	var buf strings.Builder
	inBody := false
	inTitle := false
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "body":
				inBody = true
			case "title":
				inTitle = true
			case "script", "style", "noscript":
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "title":
				inTitle = false
			case "script", "style", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if (inBody || inTitle) && skipDepth == 0 {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
