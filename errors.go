package deckagent

import "errors"

var (
	// ErrNotFound is returned when a deck or slide does not exist.
	ErrNotFound = errors.New("deckagent: not found")

	// ErrUnsupportedFormat is returned for file types no decoder accepts.
	ErrUnsupportedFormat = errors.New("deckagent: unsupported deck format")

	// ErrNoLLM is returned when an operation needs a chat model but none
	// is configured.
	ErrNoLLM = errors.New("deckagent: no chat model configured")

	// ErrNoEmbedder is returned when an operation needs an embedding model
	// but none is configured.
	ErrNoEmbedder = errors.New("deckagent: no embedding model configured")

	// ErrDeckNotIndexed is returned when a deck record exists but its
	// structure was never stored, because ingestion is still running or
	// failed partway.
	ErrDeckNotIndexed = errors.New("deckagent: deck not indexed")

	// ErrDecodingFailed is returned when a deck file cannot be decoded.
	ErrDecodingFailed = errors.New("deckagent: decoding failed")
)
