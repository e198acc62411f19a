package application

import (
	"strings"
	"testing"
)

func TestExtractSnippet(t *testing.T) {
	tests := []struct {
		name     string
		markdown []byte
		expected string
	}{
		{
			name:     "First paragraph",
			markdown: []byte("This is the first paragraph\n\nMore content"),
			expected: "This is the first paragraph",
		},
		{
			name:     "Multi-line first paragraph",
			markdown: []byte("First line of paragraph.\nSecond line of paragraph.\n\nSecond paragraph"),
			expected: "First line of paragraph. Second line of paragraph.",
		},
		{
			name:     "Skip leading headings and blank lines",
			markdown: []byte("\n\n## Subtitle\nFirst paragraph content"),
			expected: "First paragraph content",
		},
		{
			name:     "Skip leading image",
			markdown: []byte("![banner](images/banner.png)\n\nAfter the image"),
			expected: "After the image",
		},
		{
			name:     "CRLF line endings",
			markdown: []byte("Line one\r\nLine two\r\n\r\nNext"),
			expected: "Line one Line two",
		},
		{
			name:     "Stop at code block",
			markdown: []byte("First paragraph\n```\ncode\n```"),
			expected: "First paragraph",
		},
		{
			name:     "Stop at list",
			markdown: []byte("Intro text\n- List item"),
			expected: "Intro text",
		},
		{
			name:     "Stop at table",
			markdown: []byte("Intro\n| Col1 | Col2 |"),
			expected: "Intro",
		},
		{
			name:     "Truncate long paragraph",
			markdown: []byte("This is a very long paragraph that exceeds the maximum length limit and should be truncated at a word boundary to ensure that the snippet looks clean and professional without cutting words in the middle which would look unprofessional."),
			expected: "This is a very long paragraph that exceeds the maximum length limit and should be truncated at a word boundary to ensure that the snippet looks clean and professional without cutting words in the...",
		},
		{
			name:     "Only a heading",
			markdown: []byte("# Title"),
			expected: "",
		},
		{
			name:     "Empty markdown",
			markdown: []byte(""),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractSnippet(tt.markdown)
			if result != tt.expected {
				t.Errorf("extractSnippet() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestIsRelativeLink(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{name: "Absolute HTTP URL", url: "http://example.com/page", expected: false},
		{name: "Absolute HTTPS URL", url: "https://example.com/page", expected: false},
		{name: "Protocol-relative URL", url: "//example.com/page", expected: false},
		{name: "Mailto link", url: "mailto:user@example.com", expected: false},
		{name: "Data URI", url: "data:image/png;base64,iVBOR...", expected: false},
		{name: "Absolute path", url: "/about/contact", expected: true},
		{name: "Relative path with ./", url: "./images/photo.jpg", expected: true},
		{name: "Relative path with ../", url: "../docs/readme.md", expected: true},
		{name: "Simple filename", url: "other-post.md", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isRelativeLink(tt.url)
			if result != tt.expected {
				t.Errorf("isRelativeLink(%q) = %v, want %v", tt.url, result, tt.expected)
			}
		})
	}
}

func TestGoldmarkRenderer_Render(t *testing.T) {
	renderer := NewMarkdownRenderer()

	tests := []struct {
		name           string
		markdown       string
		siteURL        string
		expectedSnip   string
		expectedInHTML []string
		notInHTML      []string
	}{
		{
			name:           "Basic markdown",
			markdown:       "This is a test paragraph.\n\nSome **bold** text",
			expectedSnip:   "This is a test paragraph.",
			expectedInHTML: []string{"<p>This is a test paragraph.</p>", "<strong>bold</strong>"},
		},
		{
			name:           "GFM features",
			markdown:       "Intro.\n\n- [x] Done\n\n| A | B |\n|---|---|\n| 1 | 2 |\n\n~~gone~~",
			expectedSnip:   "Intro.",
			expectedInHTML: []string{"<table>", `type="checkbox"`, "<del>gone</del>"},
		},
		{
			name:           "Relative links rewritten to the site",
			markdown:       "See [the other post](other-post.md) and [about](/pages/about.html).",
			siteURL:        "https://example.com/",
			expectedInHTML: []string{`href="https://example.com/other-post"`, `href="https://example.com/about"`},
		},
		{
			name:           "Links untouched without a site URL",
			markdown:       "See [the other post](other-post.md).",
			expectedInHTML: []string{`href="other-post.md"`},
		},
		{
			name:           "Absolute links and anchors untouched",
			markdown:       "[Go](https://go.dev) [top](#top) [mail](mailto:me@example.com)",
			siteURL:        "https://example.com",
			expectedInHTML: []string{`href="https://go.dev"`, `href="#top"`, `href="mailto:me@example.com"`},
		},
		{
			name:           "Images are not rewritten",
			markdown:       "![photo](images/photo.png)",
			siteURL:        "https://example.com",
			expectedInHTML: []string{`src="images/photo.png"`},
			notInHTML:      []string{"https://example.com/photo"},
		},
		{
			name:           "Raw HTML passes through",
			markdown:       "<div class=\"note\">hi</div>",
			expectedInHTML: []string{`<div class="note">hi</div>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := renderer.Render([]byte(tt.markdown), tt.siteURL)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}

			if tt.expectedSnip != "" && result.Snippet != tt.expectedSnip {
				t.Errorf("Snippet = %q, want %q", result.Snippet, tt.expectedSnip)
			}

			html := string(result.HTML)
			for _, want := range tt.expectedInHTML {
				if !strings.Contains(html, want) {
					t.Errorf("HTML does not contain %q:\n%s", want, html)
				}
			}
			for _, notWant := range tt.notInHTML {
				if strings.Contains(html, notWant) {
					t.Errorf("HTML unexpectedly contains %q:\n%s", notWant, html)
				}
			}
		})
	}
}

func TestGoldmarkRenderer_SiteURLDoesNotLeakBetweenCalls(t *testing.T) {
	renderer := NewMarkdownRenderer()

	if _, err := renderer.Render([]byte("[x](x.md)"), "https://first.example.com"); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	result, err := renderer.Render([]byte("[x](x.md)"), "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(string(result.HTML), "first.example.com") {
		t.Errorf("second render used the first site URL: %s", result.HTML)
	}
}
