package metadata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrDuplicateBlock is returned when a document holds more than one configuration block
	// and it is ambiguous which one to rewrite.
	ErrDuplicateBlock = errors.New("document contains more than one post configuration block")

	// ErrConcurrentEdit is returned when the configuration block changed between the parse
	// a write is based on and the write itself.
	ErrConcurrentEdit = errors.New("post configuration block changed since it was read")
)

const (
	defaultTitle      = "Post Title"
	defaultWeblogName = "Name of registered blog to post to"
)

// Render produces the canonical configuration block for m. The title is not part of
// the block; it lives in the document's leading "# " line.
func Render(m PostMetadata) string {
	var sb strings.Builder
	sb.WriteString(StartMarker + "\n")
	sb.WriteString("---\n")
	sb.WriteString("```xml\n")
	writeTag(&sb, "abstract", m.Abstract)
	writeTag(&sb, "categories", m.Categories)
	if m.PostID > 0 {
		sb.WriteString(postIDTag(m.PostID) + "\n")
	}
	writeTag(&sb, "keywords", m.Keywords)
	writeTag(&sb, "weblog", m.WeblogName)
	sb.WriteString("```\n")
	sb.WriteString(EndMarker + "\n")
	return sb.String()
}

func writeTag(sb *strings.Builder, name, value string) {
	fmt.Fprintf(sb, "<%s>\n%s\n</%s>\n", name, value, name)
}

func postIDTag(id int) string {
	return "<postid>" + strconv.Itoa(id) + "</postid>"
}

// Apply writes m into raw, replacing the existing configuration block or appending a
// new one after a blank line. The returned Document is a fresh parse of the result.
func Apply(raw string, m PostMetadata) (Document, error) {
	return Replace(raw, Parse(raw), m)
}

// Replace writes m into current, where prev is the parse the caller's edit is based on.
//
// The block is replaced by the offsets captured in prev while the text there is
// unchanged. If the document moved underneath, the block is located again and
// replaced only if its content is still what prev saw; any other change to the
// block is reported as ErrConcurrentEdit. Text outside the block is never touched.
func Replace(current string, prev Document, m PostMetadata) (Document, error) {
	if countOccurrences(current, StartMarker, false) > 1 {
		return Document{}, ErrDuplicateBlock
	}

	span, found, err := resolveSpan(current, prev)
	if err != nil {
		return Document{}, err
	}

	nl := lineEnding(current)
	block := convertNewlines(Render(m), nl)

	if !found {
		return Parse(appendBlock(current, block, nl)), nil
	}

	rest := current[span.End:]
	if strings.HasPrefix(rest, "\n") || strings.HasPrefix(rest, "\r\n") {
		block = strings.TrimSuffix(block, nl)
	}

	return Parse(current[:span.Start] + block + rest), nil
}

func resolveSpan(current string, prev Document) (Span, bool, error) {
	if prev.Block.Found() {
		s := prev.Block.Span
		if s.End <= len(current) && current[s.Start:s.End] == prev.Block.Text {
			return s, true, nil
		}
	}

	span, ok := ExtractSpan(current, StartMarker, EndMarker, blockOptions)
	switch {
	case !ok && !prev.Block.Found():
		return Span{}, false, nil
	case ok && prev.Block.Found() && current[span.Start:span.End] == prev.Block.Text:
		return span, true, nil
	default:
		return Span{}, false, ErrConcurrentEdit
	}
}

func appendBlock(text, block, nl string) string {
	if text == "" {
		return block
	}
	if !strings.HasSuffix(text, "\n") {
		text += nl
	}
	return text + nl + block
}

// InjectPostID records id in the document's configuration block, right after the
// closing categories tag. A block that already carries a post id is left alone, and
// the second return value reports whether anything was written.
func InjectPostID(current string, id int) (string, bool, error) {
	if countOccurrences(current, StartMarker, false) > 1 {
		return current, false, ErrDuplicateBlock
	}

	span, ok := ExtractSpan(current, StartMarker, EndMarker, blockOptions)
	if !ok {
		return current, false, ErrConcurrentEdit
	}

	block := current[span.Start:span.End]
	if indexFrom(block, "<postid>", 0, false) >= 0 {
		return current, false, nil
	}

	nl := lineEnding(current)
	tag := postIDTag(id)

	var insertAt int
	if idx := indexFrom(block, "</categories>", 0, false); idx >= 0 {
		insertAt = span.Start + idx + len("</categories>")
		tag = nl + tag
	} else {
		// no categories tag: put it on its own line right after the start marker
		insertAt = span.Start + len(StartMarker)
		if strings.HasPrefix(current[insertAt:], "\r\n") {
			insertAt += 2
		} else if strings.HasPrefix(current[insertAt:], "\n") {
			insertAt++
		} else {
			tag = nl + tag
		}
		tag += nl
	}

	return current[:insertAt] + tag + current[insertAt:], true, nil
}

// NewPostDocument returns the source text for a new, empty post.
func NewPostDocument(title, weblogName string) string {
	if title == "" {
		title = defaultTitle
	}
	if weblogName == "" {
		weblogName = defaultWeblogName
	}

	return "# " + title + "\n" +
		"\n\n\n" +
		StartMarker + "\n" +
		"---\n" +
		"```xml\n" +
		"<abstract>\n</abstract>\n" +
		"<categories>\n</categories>\n" +
		"<keywords>\n</keywords>\n" +
		"<weblog>\n" + weblogName + "\n</weblog>\n" +
		"```\n" +
		EndMarker + "\n"
}

// lineEnding reports the newline convention of text, preferring "\n" when there is none.
func lineEnding(text string) string {
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

func convertNewlines(s, nl string) string {
	if nl == "\n" {
		return s
	}
	return strings.ReplaceAll(s, "\n", nl)
}
