package paper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ErrNoHTMLVersion is returned when arXiv has no rendered HTML for the
// paper; callers should fall back to abstract-only summarization.
var ErrNoHTMLVersion = errors.New("paper has no html version")

// DefaultMaxFullTextChars keeps the extracted body inside a model
// context window (roughly 100K tokens).
const DefaultMaxFullTextChars = 400_000

const truncationMarker = "\n\n[... truncated ...]"

// FullTextFetcher downloads the rendered HTML of an arXiv paper and
// extracts the article body as plain text.
type FullTextFetcher struct {
	client   *http.Client
	maxChars int
}

func NewFullTextFetcher(maxChars int) *FullTextFetcher {
	if maxChars <= 0 {
		maxChars = DefaultMaxFullTextChars
	}
	return &FullTextFetcher{
		client:   &http.Client{Timeout: 60 * time.Second},
		maxChars: maxChars,
	}
}

// Fetch resolves the paper's arXiv id, downloads arxiv.org/html/<id>,
// and returns the cleaned article text.
func (f *FullTextFetcher) Fetch(ctx context.Context, paperURL string) (string, error) {
	id := ArxivID(paperURL)
	if id == "" {
		return "", fmt.Errorf("not an arxiv abstract url: %s", paperURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://arxiv.org/html/"+id, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("full text fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNoHTMLVersion
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("full text fetch failed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return "", fmt.Errorf("full text read failed: %w", err)
	}

	text, err := ExtractArticleText(string(body))
	if err != nil {
		return "", err
	}
	return f.limit(text), nil
}

func (f *FullTextFetcher) limit(text string) string {
	runes := []rune(text)
	if len(runes) <= f.maxChars {
		return text
	}
	return string(runes[:f.maxChars]) + truncationMarker
}

var (
	multiBlankPattern = regexp.MustCompile(`\n{3,}`)
	inlineSpacePattern = regexp.MustCompile(`[ \t]+`)
)

// ExtractArticleText parses the page and returns the text of the first
// article element, falling back to the ltx_document container and then
// main. Script, style, navigation chrome and the bibliography are dropped.
func ExtractArticleText(rawHTML string) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("html parse failed: %w", err)
	}

	article := findFirst(doc, func(n *html.Node) bool { return n.Data == "article" })
	if article == nil {
		article = findFirst(doc, func(n *html.Node) bool { return hasClass(n, "ltx_document") })
	}
	if article == nil {
		article = findFirst(doc, func(n *html.Node) bool { return n.Data == "main" })
	}
	if article == nil {
		return "", errors.New("article body not found")
	}

	var b strings.Builder
	collectText(article, &b)

	text := b.String()
	text = inlineSpacePattern.ReplaceAllString(text, " ")
	text = multiBlankPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

var skippedTags = map[string]bool{
	"script": true,
	"style":  true,
	"nav":    true,
	"header": true,
	"footer": true,
}

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "figure": true, "figcaption": true,
	"blockquote": true, "pre": true, "table": true, "br": true,
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		if skippedTags[n.Data] || hasClass(n, "ltx_bibliography") {
			return
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
	if n.Type == html.ElementNode && blockTags[n.Data] {
		b.WriteString("\n")
	}
}
