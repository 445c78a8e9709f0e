package core

import (
	"context"
	"io"
)

// Collection names
const (
	CollectionUsers       = "users"
	CollectionBatches     = "batches"
	CollectionEnrollments = "enrollments"
	CollectionAttendance  = "attendance"
	CollectionQuizzes     = "quizzes"
	CollectionResults     = "results"
)

type (
	// DocumentStore maps a collection name to a JSON encoded array of records.
	// It only supports whole-collection reads and writes.
	DocumentStore interface {
		// Get returns the raw JSON array stored under collection, or nil if it was never set.
		Get(ctx context.Context, collection string) ([]byte, error)
		// Set replaces the whole collection.
		Set(ctx context.Context, collection string, data []byte) error
		Ping(ctx context.Context) error
		Close() error
	}

	// BlobStore stores uploaded files (payment proofs).
	BlobStore interface {
		// Put stores the content and returns a reference (path or URL) to it.
		Put(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
		Get(ctx context.Context, ref string) (io.ReadCloser, error)
	}
)
