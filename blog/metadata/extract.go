package metadata

import "strings"

// ExtractOptions controls how Extract matches a delimited region.
type ExtractOptions struct {
	CaseSensitive     bool
	AllowMissingEnd   bool
	IncludeDelimiters bool
}

// Span is a half-open byte range [Start, End) into the searched text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Extract returns the first region of text that starts with start and ends with end.
// An absent start marker is the normal "nothing there yet" case and yields "".
func Extract(text, start, end string, opts ExtractOptions) string {
	span, ok := ExtractSpan(text, start, end, opts)
	if !ok {
		return ""
	}
	return text[span.Start:span.End]
}

// ExtractSpan is Extract but reports the byte offsets of the match, so callers can
// later replace exactly that region.
func ExtractSpan(text, start, end string, opts ExtractOptions) (Span, bool) {
	if start == "" {
		return Span{}, false
	}

	startIdx := indexFrom(text, start, 0, opts.CaseSensitive)
	if startIdx < 0 {
		return Span{}, false
	}
	innerStart := startIdx + len(start)

	endIdx := -1
	if end != "" {
		endIdx = indexFrom(text, end, innerStart, opts.CaseSensitive)
	}

	if endIdx < 0 {
		if !opts.AllowMissingEnd {
			return Span{}, false
		}
		if opts.IncludeDelimiters {
			return Span{Start: startIdx, End: len(text)}, true
		}
		return Span{Start: innerStart, End: len(text)}, true
	}

	if opts.IncludeDelimiters {
		return Span{Start: startIdx, End: endIdx + len(end)}, true
	}
	return Span{Start: innerStart, End: endIdx}, true
}

// countOccurrences reports how many non-overlapping times marker appears in text.
func countOccurrences(text, marker string, caseSensitive bool) int {
	count := 0
	for from := 0; ; {
		idx := indexFrom(text, marker, from, caseSensitive)
		if idx < 0 {
			return count
		}
		count++
		from = idx + len(marker)
	}
}

// indexFrom finds substr in s at or after byte offset from, returning an absolute index.
func indexFrom(s, substr string, from int, caseSensitive bool) int {
	if from > len(s) {
		return -1
	}
	if caseSensitive {
		idx := strings.Index(s[from:], substr)
		if idx < 0 {
			return -1
		}
		return from + idx
	}
	return indexFold(s, substr, from)
}

// indexFold is a case-insensitive strings.Index that keeps byte offsets into the
// original string (lowercasing first could shift them for non-ASCII input).
func indexFold(s, substr string, from int) int {
	n := len(substr)
	for i := from; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}
