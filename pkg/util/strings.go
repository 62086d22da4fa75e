package util

import "unicode/utf8"

// MaxLogBodySize caps envelopes kept in request log entries.
const MaxLogBodySize = 10 * 1024

// TruncatedSuffix marks a body cut by TruncateBody.
const TruncatedSuffix = "...(truncated)"

// TruncateBody cuts data to at most maxSize bytes and appends TruncatedSuffix.
// The cut never splits a UTF-8 sequence. maxSize <= 0 means MaxLogBodySize.
func TruncateBody(data string, maxSize int) string {
	if maxSize <= 0 {
		maxSize = MaxLogBodySize
	}
	if len(data) <= maxSize {
		return data
	}
	cut := maxSize
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return data[:cut] + TruncatedSuffix
}
