package keywords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBacktickTokens(t *testing.T) {
	md := "# Summary\n\ntext\n\n## Keywords\n\n`transformer`, `attention`, `BERT`\n\n## Next\nignored"
	got := Extract(md)
	assert.Equal(t, []string{"transformer", "attention", "BERT"}, got)
}

func TestExtractKoreanHeading(t *testing.T) {
	md := "## 키워드\n\n`딥러닝` `자연어처리`"
	got := Extract(md)
	assert.Equal(t, []string{"딥러닝", "자연어처리"}, got)
}

func TestExtractBoldTokensNeedTwo(t *testing.T) {
	md := "## Keywords\n\n**graph neural networks** and **molecules**"
	assert.Equal(t, []string{"graph neural networks", "molecules"}, Extract(md))

	// A single bold token falls through to the delimiter split.
	single := "## Keywords\n\n**only one**, plain"
	assert.Equal(t, []string{"only one", "plain"}, Extract(single))
}

func TestExtractDelimiterSplit(t *testing.T) {
	md := "## Keywords\n\n- reinforcement learning, policy gradient / actor-critic · exploration"
	got := Extract(md)
	assert.Equal(t, []string{"reinforcement learning", "policy gradient", "actor-critic", "exploration"}, got)
}

func TestExtractSectionBounds(t *testing.T) {
	byHeading := "## Keywords\n`a`\n## Conclusion\n`not-a-keyword`"
	assert.Equal(t, []string{"a"}, Extract(byHeading))

	byDivider := "## Keywords\n`a`\n---\n`not-a-keyword`"
	assert.Equal(t, []string{"a"}, Extract(byDivider))

	byBlankRun := "## Keywords\n`a`\n\n\n\n`not-a-keyword`"
	assert.Equal(t, []string{"a"}, Extract(byBlankRun))
}

func TestExtractBoundProperty(t *testing.T) {
	var b strings.Builder
	b.WriteString("## Keywords\n")
	for i := 0; i < 30; i++ {
		b.WriteString("`kw`, ``, `")
		b.WriteString(strings.Repeat("x", 80))
		b.WriteString("`\n")
	}
	got := Extract(b.String())

	assert.LessOrEqual(t, len(got), MaxKeywords)
	for _, kw := range got {
		assert.NotEmpty(t, kw)
		assert.Less(t, len([]rune(kw)), MaxKeywordLen)
	}
}

func TestExtractNoSectionOrEmptyInput(t *testing.T) {
	assert.Empty(t, Extract(""))
	assert.Empty(t, Extract("# Summary\n\njust text, no tag section"))
	assert.Empty(t, Extract("## Keywords"))
}

func TestExtractUsesFirstKeywordSection(t *testing.T) {
	md := "## Keywords\n`first`\n\n## Keywords\n`second`"
	assert.Equal(t, []string{"first"}, Extract(md))
}
