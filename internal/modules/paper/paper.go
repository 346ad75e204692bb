// Package paper identifies papers and fetches their full text.
package paper

import (
	"net/url"
	"regexp"
	"strings"
)

// Record carries what the summarizer needs to know about one paper.
type Record struct {
	PaperID      string `json:"paperId"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	AbstractText string `json:"abstractText,omitempty"`
	FullText     string `json:"fullText,omitempty"`
}

var arxivAbsPattern = regexp.MustCompile(`arxiv\.org/abs/([^/?#]+)`)

// NormalizeID derives the stable paper identifier from a source URL.
// Query and fragment are dropped so two links to the same abstract page
// resolve to the same id. arXiv abstract URLs reduce to the bare arXiv id.
func NormalizeID(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}

	if m := arxivAbsPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}

	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			raw = raw[:i]
		}
		return strings.TrimSuffix(raw, "/")
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/")
}

// ArxivID extracts the arXiv paper id from an abs URL, or "" when the
// URL is not an arXiv abstract link.
func ArxivID(rawURL string) string {
	if m := arxivAbsPattern.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}
