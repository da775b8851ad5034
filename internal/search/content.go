package search

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespace = regexp.MustCompile(`\s+`)

// cleanHTML extracts readable text blocks from a scraped page
func cleanHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return collapseWhitespace(html)
	}
	doc.Find("script, style, nav, header, footer, iframe, noscript").Remove()
	doc.Find(".menu, .navigation, .social, .banner, .ads, .cookie, .popup").Remove()

	var blocks []string
	doc.Find("p, li, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			blocks = append(blocks, collapseWhitespace(text))
		}
	})
	if len(blocks) > 0 {
		return strings.Join(blocks, "\n")
	}
	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// truncate keeps at most limit runes of s
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runeCount := 0
	for i := range s {
		if runeCount == limit {
			return s[:i]
		}
		runeCount++
	}
	return s
}

// normalizeKey folds case and strips diacritics so near-identical listings
// compare equal
func normalizeKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	return collapseWhitespace(strings.ToLower(result))
}
