package ingest

import (
	"fmt"
	"io"
	"sync"

	"github.com/poiesic/doctalk/convert"
)

// ProgressPrinter renders progress updates as a single self-updating
// line, for interactive batch runs.
type ProgressPrinter struct {
	writer io.Writer
	mu     sync.Mutex
	wrote  bool
}

// NewProgressPrinter creates a printer writing to writer, typically
// os.Stderr.
func NewProgressPrinter(writer io.Writer) *ProgressPrinter {
	return &ProgressPrinter{writer: writer}
}

// Update rewrites the progress line.
func (p *ProgressPrinter) Update(progress convert.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.wrote = true
	if progress.EstimatedRemaining > 0 {
		fmt.Fprintf(p.writer, "\rProgress: %d/%d (%d%%) - Estimated: %s",
			progress.Processed, progress.Total, progress.Percentage,
			convert.FormatRemaining(progress.EstimatedRemaining))
		return
	}
	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%d%%)",
		progress.Processed, progress.Total, progress.Percentage)
}

// UpdateBatch rewrites the progress line for a directory run, showing
// the batch position and the current file's conversion percentage.
func (p *ProgressPrinter) UpdateBatch(progress BatchProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.wrote = true
	if progress.Batch.EstimatedRemaining > 0 {
		fmt.Fprintf(p.writer, "\rFile %d/%d (%s): %d%% - Estimated: %s",
			progress.Index, progress.Total, progress.Filename,
			progress.File.Percentage,
			convert.FormatRemaining(progress.Batch.EstimatedRemaining))
		return
	}
	fmt.Fprintf(p.writer, "\rFile %d/%d (%s): %d%%",
		progress.Index, progress.Total, progress.Filename,
		progress.File.Percentage)
}

// Finish terminates the progress line, if one was written.
func (p *ProgressPrinter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.wrote {
		fmt.Fprintln(p.writer)
	}
}
