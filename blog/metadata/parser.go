// Package metadata reads and writes the post configuration block that markdown
// posts carry alongside their prose.
//
// A post looks like this:
//
//	# Post Title
//
//	Some prose...
//
//	<!-- Post Configuration -->
//	---
//	```xml
//	<abstract>
//	...
//	</abstract>
//	...
//	```
//	<!-- End Post Configuration -->
//
// Parsing is total: any input yields a Document, with absent values left empty.
package metadata

import (
	"strconv"
	"strings"
)

const (
	StartMarker = "<!-- Post Configuration -->"
	EndMarker   = "<!-- End Post Configuration -->"

	headingPrefix = "# "
)

var (
	blockOptions = ExtractOptions{AllowMissingEnd: true, IncludeDelimiters: true}
	fieldOptions = ExtractOptions{}
)

// PostMetadata holds the editable fields of a post.
type PostMetadata struct {
	Title      string `json:"title"`
	Abstract   string `json:"abstract"`
	Keywords   string `json:"keywords"`
	Categories string `json:"categories"`
	WeblogName string `json:"weblog"`
	PostID     int    `json:"postId"`
}

// IsNew reports whether the post has never been created remotely.
func (m PostMetadata) IsNew() bool {
	return m.PostID <= 0
}

// CategoryList splits Categories on commas, dropping empty entries and surrounding whitespace.
func (m PostMetadata) CategoryList() []string {
	categories := make([]string, 0)
	for _, c := range strings.Split(m.Categories, ",") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		categories = append(categories, c)
	}
	return categories
}

// Block is the configuration block found in a document, including both markers.
type Block struct {
	Text string
	Span Span
}

// Found reports whether the document had a configuration block.
func (b Block) Found() bool {
	return b.Text != ""
}

// Document is the result of parsing one version of a post's source text.
type Document struct {
	// Raw is the full text the document was parsed from.
	Raw string
	// Body is Raw without the configuration block (and without the title line when one was found).
	Body     string
	Block    Block
	Metadata PostMetadata
}

// Parse extracts the configuration block and its fields from raw.
func Parse(raw string) Document {
	doc := Document{
		Raw:  raw,
		Body: raw,
	}

	span, ok := ExtractSpan(raw, StartMarker, EndMarker, blockOptions)
	if !ok {
		doc.Body = stripEndMarkers(raw)
		return doc
	}

	block := raw[span.Start:span.End]
	doc.Block = Block{Text: block, Span: span}
	doc.Body = stripBlocks(raw, span)

	var meta PostMetadata
	if line, ok := headingLine(raw); ok {
		doc.Body = strings.TrimSpace(strings.Replace(doc.Body, line, "", 1))
		title, _ := strings.CutPrefix(strings.TrimSpace(line), headingPrefix)
		meta.Title = strings.TrimSpace(title)
	}

	if meta.Title == "" {
		meta.Title = field(block, "\n<title>", "\n</title>")
	}
	meta.Abstract = field(block, "\n<abstract>", "\n</abstract>")
	meta.Keywords = field(block, "\n<keywords>", "\n</keywords>")
	meta.Categories = field(block, "\n<categories>", "\n</categories>")
	meta.PostID = parsePostID(field(block, "\n<postid>", "</postid>"))
	meta.WeblogName = field(block, "\n<weblog>", "</weblog>")

	doc.Metadata = meta
	return doc
}

// field returns a trimmed tag value with "\r\n" folded to "\n".
func field(block, start, end string) string {
	value := Extract(block, start, end, fieldOptions)
	return strings.TrimSpace(strings.ReplaceAll(value, "\r\n", "\n"))
}

// parsePostID never fails: anything that is not a positive integer means "no remote post yet".
func parsePostID(s string) int {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// headingLine returns the first non-empty line of text when it is a level-1 heading.
func headingLine(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), headingPrefix) {
			return line, true
		}
		return "", false
	}
	return "", false
}

// stripBlocks removes the block at first, then any further blocks and stray end
// markers, so the body never carries delimiter text.
func stripBlocks(raw string, first Span) string {
	body := raw[:first.Start] + raw[first.End:]
	for {
		span, ok := ExtractSpan(body, StartMarker, EndMarker, blockOptions)
		if !ok {
			break
		}
		body = body[:span.Start] + body[span.End:]
	}
	return stripEndMarkers(body)
}

// stripEndMarkers removes end markers that have no start marker before them.
func stripEndMarkers(body string) string {
	for {
		idx := indexFrom(body, EndMarker, 0, false)
		if idx < 0 {
			return body
		}
		body = body[:idx] + body[idx+len(EndMarker):]
	}
}
