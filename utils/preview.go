package utils

import (
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// PreviewMaxLength is the rune length of a note preview before the
// ellipsis is appended.
const PreviewMaxLength = 120

var sanitizePolicy = bluemonday.UGCPolicy()

// SanitizeContent strips unsafe markup from rich-text note content
// before it is stored.
func SanitizeContent(content string) string {
	return sanitizePolicy.Sanitize(content)
}

// StripHTML extracts the plain text of an HTML fragment. Tags are
// dropped, text nodes are concatenated in document order.
func StripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}

	var sb strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			sb.Write(tokenizer.Text())
		case html.StartTagToken:
			// Block-level boundaries become whitespace so that
			// "<p>a</p><p>b</p>" previews as "a b", not "ab".
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6":
				sb.WriteByte(' ')
			}
		}
	}
}

// MakePreview derives the plain-text preview for note content: the
// stripped text truncated to PreviewMaxLength runes, with "..." appended
// iff the text was longer than that.
func MakePreview(content string) string {
	plain := StripHTML(content)
	runes := []rune(plain)
	if len(runes) <= PreviewMaxLength {
		return plain
	}
	return string(runes[:PreviewMaxLength]) + "..."
}

// DeriveDomain extracts the host of a link URL minus a leading "www.".
// Returns "Unknown" when the URL cannot be parsed.
func DeriveDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "Unknown"
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
