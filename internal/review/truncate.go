package review

import "unicode/utf8"

// cutPrefix returns at most n bytes from the start of s without splitting
// a UTF-8 sequence.
func cutPrefix(s string, n int) string {
	if len(s) <= n {
		return s
	}

	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}

// cutSuffix returns at most n bytes from the end of s without splitting a
// UTF-8 sequence.
func cutSuffix(s string, n int) string {
	if len(s) <= n {
		return s
	}

	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}

	return s[start:]
}
