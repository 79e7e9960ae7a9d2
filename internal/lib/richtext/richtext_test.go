package richtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "allowed formatting kept",
			input: "<p><strong>주일</strong> <em>예배</em></p>",
			want:  "<p><strong>주일</strong> <em>예배</em></p>",
		},
		{
			name:  "script removed",
			input: `<p>hello</p><script>alert(1)</script>`,
			want:  "<p>hello</p>",
		},
		{
			name:  "style removed",
			input: `<style>p{color:red}</style><h2>title</h2>`,
			want:  "<h2>title</h2>",
		},
		{
			name:  "event handler dropped",
			input: `<p onclick="steal()">text</p>`,
			want:  "<p>text</p>",
		},
		{
			name:  "link attributes kept",
			input: `<a href="https://example.org" target="_blank" rel="noopener noreferrer">site</a>`,
			want:  `<a href="https://example.org" target="_blank" rel="noopener noreferrer">site</a>`,
		},
		{
			name:  "plain link gets no rel",
			input: `<a href="https://example.org">site</a>`,
			want:  `<a href="https://example.org">site</a>`,
		},
		{
			name:  "javascript link stripped",
			input: `<a href="javascript:alert(1)">bad</a>`,
			want:  "bad",
		},
		{
			name:  "unknown tag unwrapped",
			input: `<div><span>inner</span></div>`,
			want:  "inner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestHasText(t *testing.T) {
	assert.True(t, HasText("<p>말씀</p>"))
	assert.True(t, HasText("plain"))
	assert.False(t, HasText(""))
	assert.False(t, HasText("<p></p>"))
	assert.False(t, HasText("<p><br></p>"))
	assert.False(t, HasText("<p>&nbsp;</p>"))
	assert.False(t, HasText("  <ul><li> </li></ul> "))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Tom & Jerry", PlainText("<p>Tom &amp; Jerry</p>"))
}
