package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		tags     []string
		contains []string
		absent   []string
	}{
		{"empty", "", PostTags, nil, []string{"<"}},
		{"emphasis in post", "**hi**", PostTags, []string{"<strong>hi</strong>"}, nil},
		{"heading allowed in post", "# title", PostTags, []string{"<h1>title</h1>"}, nil},
		{"heading stripped in comment", "# title", CommentTags, []string{"title"}, []string{"<h1>"}},
		{"script removed", "ok\n\n<script>alert(1)</script>", PostTags, []string{"ok"}, []string{"<script"}},
		{"link kept", "[go](https://go.dev)", CommentTags, []string{`href="https://go.dev"`}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderMarkdown(tt.src, tt.tags)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}
