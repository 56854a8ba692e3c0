package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument indicates the caller supplied bad input
	// (empty query, bad chunk parameters). Always recoverable by the caller.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIndexNotFound indicates no index exists for the requested year.
	// Recoverable: the caller can ingest the year and retry.
	ErrIndexNotFound = errors.New("index not found")

	// ErrBuildInProgress indicates an index build for the same year is
	// already running
	ErrBuildInProgress = errors.New("build already in progress")

	// ErrEmbeddingService indicates the embedding provider failed
	// (transport, auth, rate limit)
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrLanguageModel indicates the language model provider failed
	ErrLanguageModel = errors.New("language model error")

	// ErrPersistence indicates a stored index is corrupt or unreadable
	ErrPersistence = errors.New("persistence error")
)
