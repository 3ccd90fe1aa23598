package domain

import "errors"

var (
	// ErrInvalidInput signals a request the caller must fix (unknown sort
	// field, bad pagination, dimension mismatch).
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound signals a missing document.
	ErrNotFound = errors.New("not found")
	// ErrVectorDimMismatch signals a query vector whose dimensionality
	// differs from the index.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	// The search path treats it as non-fatal and falls back to lexical-only.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrStorageUnavailable signals that the document store cannot be
	// reached. There is no fallback for this one.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
