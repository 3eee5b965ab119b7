package domain

import "errors"

var (
	// ErrUnsupportedDocument indicates the input is not an accepted document type.
	ErrUnsupportedDocument = errors.New("unsupported document")

	// ErrExtraction indicates the document could not be parsed.
	ErrExtraction = errors.New("text extraction failed")

	// ErrEmptyDocument indicates extraction succeeded but found no text.
	ErrEmptyDocument = errors.New("no text found in document")

	// ErrEmptyIndex indicates an attempt to build an index from zero chunks.
	ErrEmptyIndex = errors.New("cannot build an index from zero chunks")

	// ErrNoIndex indicates no persisted index exists at the workspace path.
	ErrNoIndex = errors.New("no index found")

	// ErrModelMismatch indicates the persisted index was built with a different embedding model.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrNotReady indicates a query was issued while no document is indexed.
	ErrNotReady = errors.New("no document indexed")

	// ErrBusy indicates an operation was attempted while indexing is in progress.
	ErrBusy = errors.New("indexing in progress")

	// ErrEmptyAnswer indicates the generative model returned no text.
	ErrEmptyAnswer = errors.New("model returned an empty answer")
)
