package markdown

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		absent   []string
	}{
		{
			name:     "heading with id",
			input:    "# Hello World",
			contains: []string{`<h1 id="hello-world">Hello World</h1>`},
		},
		{
			name:     "emphasis and links",
			input:    "Some *em* and [a link](https://example.com).",
			contains: []string{"<em>em</em>", `href="https://example.com"`},
		},
		{
			name:     "gfm table",
			input:    "| a | b |\n|---|---|\n| 1 | 2 |",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "strikethrough",
			input:    "~~gone~~",
			contains: []string{"<del>gone</del>"},
		},
		{
			name:     "script removed",
			input:    "before\n\n<script>alert(1)</script>\n\nafter",
			contains: []string{"before", "after"},
			absent:   []string{"<script", "alert(1)"},
		},
		{
			name:     "event handler removed",
			input:    `<img src="x.png" onerror="alert(1)">`,
			contains: []string{`src="x.png"`},
			absent:   []string{"onerror"},
		},
		{
			name:   "javascript url removed",
			input:  "[click](javascript:alert(1))",
			absent: []string{"javascript:"},
		},
		{
			name:     "fenced code highlighted",
			input:    "```go\nfunc main() {}\n```",
			contains: []string{"<pre", "func"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToHTML(tt.input)
			if err != nil {
				t.Fatalf("ToHTML: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
			for _, bad := range tt.absent {
				if strings.Contains(got, bad) {
					t.Errorf("output contains %q:\n%s", bad, got)
				}
			}
		})
	}
}

func TestToHTMLEmpty(t *testing.T) {
	got, err := ToHTML("")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
