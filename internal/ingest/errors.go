package ingest

import "errors"

var (
	// ErrDiscovery means the source directory is missing or unreadable.
	// The run continues with no files.
	ErrDiscovery = errors.New("source discovery failed")

	// ErrFileRead means a file could not be opened or failed mid-stream.
	// Already flushed batches of that file are kept.
	ErrFileRead = errors.New("source file read failed")

	// ErrWrite means the writer failed outright. It ends the run.
	ErrWrite = errors.New("storage write failed")
)
