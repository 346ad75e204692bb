// Package keywords pulls tag strings out of generated summary markdown.
// Extraction is a best-effort text heuristic: it may under-extract but
// never fails.
package keywords

import (
	"regexp"
	"strings"
)

const (
	// MaxKeywords bounds the returned list.
	MaxKeywords = 10
	// MaxKeywordLen discards runaway tokens that are clearly not tags.
	MaxKeywordLen = 50
)

var (
	headingLine    = regexp.MustCompile(`^#{1,6}\s+(.*)$`)
	dividerLine    = regexp.MustCompile(`^(?:-(?:\s*-){2,}|\*(?:\s*\*){2,}|_(?:\s*_){2,})$`)
	backtickToken  = regexp.MustCompile("`([^`]+)`")
	boldToken      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	listPrefix     = regexp.MustCompile(`^(?:[-*>]|\d+\.)\s+`)
	delimiterSplit = regexp.MustCompile(`[,，、|/·]|\s{2,}`)
)

// Extract returns at most MaxKeywords tag strings from the first
// keywords section of the markdown. The section heading matches the
// English or Korean label; the section ends at the next heading,
// divider, or a run of three blank lines.
func Extract(markdown string) []string {
	lines := strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n")

	start := -1
	for i, line := range lines {
		m := headingLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		label := strings.ToLower(m[1])
		if strings.Contains(label, "keywords") || strings.Contains(label, "keyword") || strings.Contains(label, "키워드") {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	var out []string
	blankRun := 0
	for _, line := range lines[start:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			blankRun++
			if blankRun >= 3 {
				break
			}
			continue
		}
		blankRun = 0

		if headingLine.MatchString(trimmed) || dividerLine.MatchString(trimmed) {
			break
		}

		for _, token := range tokensFromLine(trimmed) {
			if token = cleanKeyword(token); token != "" {
				out = append(out, token)
				if len(out) >= MaxKeywords {
					return out
				}
			}
		}
	}
	return out
}

// tokensFromLine tries, in order: backtick-wrapped tokens, two or more
// bold tokens, then a plain delimiter split.
func tokensFromLine(line string) []string {
	if ticks := backtickToken.FindAllStringSubmatch(line, -1); len(ticks) > 0 {
		out := make([]string, 0, len(ticks))
		for _, m := range ticks {
			out = append(out, m[1])
		}
		return out
	}

	if bolds := boldToken.FindAllStringSubmatch(line, -1); len(bolds) >= 2 {
		out := make([]string, 0, len(bolds))
		for _, m := range bolds {
			out = append(out, m[1])
		}
		return out
	}

	stripped := listPrefix.ReplaceAllString(line, "")
	stripped = strings.NewReplacer("**", "", "`", "", "*", "").Replace(stripped)
	return delimiterSplit.Split(stripped, -1)
}

func cleanKeyword(token string) string {
	token = strings.TrimSpace(token)
	token = strings.Trim(token, ".;:")
	token = strings.TrimSpace(token)
	if token == "" || len([]rune(token)) >= MaxKeywordLen {
		return ""
	}
	return token
}
