package pacing

import "errors"

var (
	// ErrNoDocument is returned when a document has no readable words.
	ErrNoDocument = errors.New("pacing: document has no words")

	// ErrWordOutOfRange is returned when jumping to a word not on the page.
	ErrWordOutOfRange = errors.New("pacing: word index out of range")

	// ErrPositionOutOfRange is returned when seeking past the document.
	ErrPositionOutOfRange = errors.New("pacing: position out of range")

	// ErrFinished is returned for navigation after the end of the document.
	ErrFinished = errors.New("pacing: end of document")
)
