package pkg

import (
	"bytes"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	PostTags = []string{"a", "abbr", "acronym", "b", "blockquote", "code",
		"em", "i", "li", "ol", "pre", "strong", "ul",
		"h1", "h2", "h3", "p"}
	CommentTags = []string{"a", "abbr", "acronym", "b", "code", "em", "i", "strong"}
)

var (
	md       = goldmark.New(goldmark.WithExtensions(extension.Linkify))
	policyMu sync.Mutex
	policies = map[string]*bluemonday.Policy{}
)

func policyFor(tags []string) *bluemonday.Policy {
	key := ""
	for _, t := range tags {
		key += t + ","
	}
	policyMu.Lock()
	defer policyMu.Unlock()
	if p, ok := policies[key]; ok {
		return p
	}
	p := bluemonday.NewPolicy()
	p.AllowElements(tags...)
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	policies[key] = p
	return p
}

// RenderMarkdown markdown 转 html，白名单之外的标签只保留文本
func RenderMarkdown(src string, allowed []string) string {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return policyFor(allowed).Sanitize(src)
	}
	return policyFor(allowed).Sanitize(buf.String())
}
