// Package wpm computes word counts and rolling words-per-minute rates.
package wpm

import "strings"

// CountWords returns the number of whitespace-delimited tokens in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
