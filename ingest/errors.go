package ingest

import "errors"

var (
	// ErrDuplicate indicates the file's identity hash is already in the
	// dedup index; no conversion was attempted.
	ErrDuplicate = errors.New("file already ingested")

	// ErrUnsupported indicates the file's extension is not convertible.
	ErrUnsupported = errors.New("unsupported file type")

	// ErrConverterRequired is returned by NewPipeline without a converter.
	ErrConverterRequired = errors.New("converter is required")

	// ErrRecorderRequired is returned by NewPipeline without a recorder.
	ErrRecorderRequired = errors.New("recorder is required")
)
