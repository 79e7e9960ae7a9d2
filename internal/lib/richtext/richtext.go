// Package richtext sanitizes notice bodies written in the admin editor.
package richtext

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy = newPolicy()
	strict = bluemonday.StrictPolicy()
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements("p", "br", "strong", "em", "u", "h1", "h2", "h3", "ul", "ol", "li")

	p.AllowStandardURLs()
	// rel редактора сохраняется как есть
	p.RequireNoFollowOnLinks(false)
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_(blank|self)$`)).OnElements("a")
	p.AllowAttrs("rel").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")

	return p
}

// Sanitize оставляет только разрешенные теги и атрибуты
func Sanitize(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}

// PlainText возвращает текст без разметки
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// HasText сообщает, остается ли в разметке видимый текст
func HasText(s string) bool {
	return PlainText(s) != ""
}
