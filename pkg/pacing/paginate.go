// Package pacing drives paced reading: a line of text is split into short
// pages and relative horizontal gaze motion moves a cursor word by word.
package pacing

import (
	"strings"
	"unicode/utf8"
)

// Pagination defaults.
const (
	DefaultWordsPerPage = 10
	DefaultCharsPerPage = 66 // including separating spaces
)

// Tokenize splits a line into words on whitespace.
func Tokenize(line string) []string {
	return strings.Fields(line)
}

// Paginate splits words into pages holding at most maxWords words and
// maxChars characters (spaces included). Whichever cap is hit first ends
// the page. A word longer than maxChars gets a page of its own. The result
// always holds at least one (possibly empty) page.
func Paginate(words []string, maxWords, maxChars int) [][]string {
	if maxWords < 1 {
		maxWords = 1
	}
	var pages [][]string
	var page []string
	chars := 0
	for _, w := range words {
		needed := utf8.RuneCountInString(w)
		if len(page) > 0 {
			needed++ // separating space
		}
		if len(page) > 0 && (len(page) >= maxWords || chars+needed > maxChars) {
			pages = append(pages, page)
			page, chars = nil, 0
			needed = utf8.RuneCountInString(w)
		}
		page = append(page, w)
		chars += needed
	}
	if len(page) > 0 {
		pages = append(pages, page)
	}
	if len(pages) == 0 {
		return [][]string{{}}
	}
	return pages
}
