package application

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/dfryer1193/weblog/blog/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const maxSnippetLength = 200

var siteURLKey = parser.NewContextKey()

// RenderResult contains the results of rendering a post body
type RenderResult struct {
	Snippet string
	HTML    []byte
}

// MarkdownRenderer converts a post body to HTML.
// Relative links are rewritten against siteURL when it is not empty.
type MarkdownRenderer interface {
	Render(markdown []byte, siteURL string) (*RenderResult, error)
}

// relativeLinkTransformer points relative links at the published site.
// Images are left alone; they are uploaded separately and rewritten in the HTML.
type relativeLinkTransformer struct{}

func (t *relativeLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	siteURL, _ := pc.Get(siteURLKey).(string)
	if siteURL == "" {
		return
	}
	siteURL = strings.TrimSuffix(siteURL, "/")

	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}

		dest := string(link.Destination)
		if dest == "" || strings.HasPrefix(dest, "#") || !isRelativeLink(dest) {
			return ast.WalkContinue, nil
		}

		destFile := path.Base(dest)
		destFile = strings.TrimSuffix(destFile, ".md")
		destFile = strings.TrimSuffix(destFile, ".html")
		link.Destination = []byte(siteURL + "/" + destFile)

		return ast.WalkContinue, nil
	})
}

func isRelativeLink(dest string) bool {
	if strings.HasPrefix(dest, "/") {
		return !strings.HasPrefix(dest, "//")
	}

	if strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}

	return !strings.Contains(dest, ":")
}

type GoldmarkRenderer struct {
	md goldmark.Markdown
}

func NewMarkdownRenderer() *GoldmarkRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&relativeLinkTransformer{}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(),
		),
	)

	return &GoldmarkRenderer{
		md: md,
	}
}

func (r *GoldmarkRenderer) Render(markdown []byte, siteURL string) (*RenderResult, error) {
	pc := parser.NewContext()
	pc.Set(siteURLKey, siteURL)

	var buf bytes.Buffer
	if err := r.md.Convert(markdown, &buf, parser.WithContext(pc)); err != nil {
		return nil, fmt.Errorf("%w: failed to convert markdown to HTML: %v", domain.ErrRender, err)
	}

	return &RenderResult{
		Snippet: extractSnippet(markdown),
		HTML:    buf.Bytes(),
	}, nil
}

// extractSnippet returns the first prose paragraph, cut at a word boundary after maxSnippetLength bytes.
func extractSnippet(markdown []byte) string {
	lines := strings.Split(string(markdown), "\n")
	var paragraphLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") || isImageLine(trimmed) {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		// Stop at code blocks, horizontal rules, lists, tables
		if strings.HasPrefix(trimmed, "```") ||
			strings.HasPrefix(trimmed, "---") ||
			strings.HasPrefix(trimmed, "***") ||
			strings.HasPrefix(trimmed, "- ") ||
			strings.HasPrefix(trimmed, "* ") ||
			strings.HasPrefix(trimmed, "+ ") ||
			strings.HasPrefix(trimmed, "|") ||
			strings.HasPrefix(trimmed, "<!--") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		paragraphLines = append(paragraphLines, trimmed)
	}

	if len(paragraphLines) == 0 {
		return ""
	}

	snippet := strings.Join(paragraphLines, " ")

	if len(snippet) > maxSnippetLength {
		snippet = snippet[:maxSnippetLength]
		if lastSpace := strings.LastIndexAny(snippet, " \t"); lastSpace > 0 {
			snippet = snippet[:lastSpace]
		}
		snippet += "..."
	}

	return snippet
}

func isImageLine(line string) bool {
	return strings.HasPrefix(line, "![") && strings.HasSuffix(line, ")")
}
