// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ingest turns files on disk into stored document records:
// identity hashing, dedup skip, conversion, and paced batch runs.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/doctalk/convert"
	"github.com/poiesic/doctalk/core"
)

// DefaultPacing is the delay between files in a batch run, keeping the
// conversion service from being hammered.
const DefaultPacing = time.Second

// supportedExtensions are the convertible file types, lowercase.
var supportedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".docx": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Recorder is the pipeline's view of application state: the dedup
// index and the document sink.
type Recorder interface {
	// HasHash reports whether a file identity hash is already recorded.
	HasHash(hash string) bool

	// AddDocument stores a converted document and records its hash.
	AddDocument(ctx context.Context, record *core.DocumentRecord) error
}

// BatchReport summarizes a directory run. Skips are split by cause:
// duplicates were already ingested, unsupported files never qualified.
type BatchReport struct {
	Processed          int
	Failed             int
	SkippedDuplicate   int
	SkippedUnsupported int
	Errors             []string
}

// Summary renders the report as a single status line.
func (r *BatchReport) Summary() string {
	return fmt.Sprintf("Processed %d, failed %d, skipped %d duplicates, %d unsupported",
		r.Processed, r.Failed, r.SkippedDuplicate, r.SkippedUnsupported)
}

// BatchProgress is one progress update from a directory run: the
// position within the batch plus the current file's conversion
// sub-progress.
type BatchProgress struct {
	Index    int // 1-based position of the current file
	Total    int // number of convertible files in the batch
	Filename string
	// File is the current file's conversion sub-progress. The update
	// emitted after a file finishes reports it as complete.
	File convert.Progress
	// Batch counts completed files, with a rate-based estimate.
	Batch convert.Progress
}

// BatchProgressFunc receives batch progress updates.
type BatchProgressFunc func(BatchProgress)

// sourceMetadata is the opaque metadata blob stored with each record.
type sourceMetadata struct {
	Size       int64 `json:"size"`
	ModifiedMs int64 `json:"modified_ms"`
}

// Pipeline converts files and records the results.
type Pipeline struct {
	converter convert.Converter
	recorder  Recorder
	pacing    time.Duration
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPacing sets the delay between batch files. Zero disables pacing.
func WithPacing(pacing time.Duration) Option {
	return func(p *Pipeline) error {
		if pacing < 0 {
			pacing = 0
		}
		p.pacing = pacing
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline. The background pool has a
// single worker so async batches run strictly one at a time.
func NewPipeline(converter convert.Converter, recorder Recorder, opts ...Option) (*Pipeline, error) {
	if converter == nil {
		return nil, ErrConverterRequired
	}
	if recorder == nil {
		return nil, ErrRecorderRequired
	}

	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		converter: converter,
		recorder:  recorder,
		pacing:    DefaultPacing,
		pool:      pool,
		logger:    slog.Default().With("component", "ingest"),
	}
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Release shuts down the background pool. The pipeline should not be
// used afterwards.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Supported reports whether the filename's extension is convertible.
func Supported(filename string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// IngestFile converts a single file and records the result. A file
// whose identity hash is already recorded returns ErrDuplicate without
// touching the conversion service.
func (p *Pipeline) IngestFile(ctx context.Context, path string, onProgress convert.ProgressFunc) (*core.DocumentRecord, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", path, err)
	}

	filename := filepath.Base(path)
	hash := core.FileKey(filename, info.Size(), info.ModTime().UnixMilli())
	if p.recorder.HasHash(hash) {
		p.logger.Debug("skipping duplicate", "filename", filename, "hash", hash)
		return nil, ErrDuplicate
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	content, err := p.converter.Convert(ctx, data, filename, onProgress)
	if err != nil {
		return nil, err
	}

	metadata, err := json.Marshal(sourceMetadata{
		Size:       info.Size(),
		ModifiedMs: info.ModTime().UnixMilli(),
	})
	if err != nil {
		return nil, err
	}

	record := &core.DocumentRecord{
		Id:          uuid.NewString(),
		Filename:    filename,
		Content:     content,
		Metadata:    metadata,
		SourcePath:  path,
		ContentHash: hash,
		CreatedAt:   time.Now().UTC(),
	}
	if err := p.recorder.AddDocument(ctx, record); err != nil {
		return nil, fmt.Errorf("recording %s: %w", filename, err)
	}

	p.logger.Info("document ingested", "filename", filename, "content_length", len(content))
	return record, nil
}

// IngestDir converts every supported file directly under dir, strictly
// sequentially with a pacing delay between conversions. Per-file
// failures are recorded in the report; the batch always runs to the
// end unless the context is cancelled. Each file's conversion
// sub-progress is forwarded to onProgress alongside the batch position.
func (p *Pipeline) IngestDir(ctx context.Context, dir string, onProgress BatchProgressFunc) (*BatchReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	report := &BatchReport{}
	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !Supported(entry.Name()) {
			report.SkippedUnsupported++
			continue
		}
		candidates = append(candidates, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(candidates)

	start := time.Now()
	for i, path := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if i > 0 && p.pacing > 0 {
			timer := time.NewTimer(p.pacing)
			select {
			case <-ctx.Done():
				timer.Stop()
				return report, ctx.Err()
			case <-timer.C:
			}
		}

		filename := filepath.Base(path)
		var fileProgress convert.ProgressFunc
		if onProgress != nil {
			fileProgress = func(fp convert.Progress) {
				onProgress(BatchProgress{
					Index:    i + 1,
					Total:    len(candidates),
					Filename: filename,
					File:     fp,
					Batch:    convert.MeasureProgress(i, len(candidates), time.Since(start)),
				})
			}
		}

		_, err := p.IngestFile(ctx, path, fileProgress)
		switch {
		case err == nil:
			report.Processed++
		case errors.Is(err, ErrDuplicate):
			report.SkippedDuplicate++
		default:
			report.Failed++
			report.Errors = append(report.Errors,
				fmt.Sprintf("%s: %v", filepath.Base(path), err))
			p.logger.Warn("batch file failed", "path", path, "err", err)
		}

		if onProgress != nil {
			onProgress(BatchProgress{
				Index:    i + 1,
				Total:    len(candidates),
				Filename: filename,
				File:     convert.Progress{Processed: 1, Total: 1, Percentage: 100},
				Batch:    convert.MeasureProgress(i+1, len(candidates), time.Since(start)),
			})
		}
	}

	p.logger.Info("batch complete", "summary", report.Summary())
	return report, nil
}

// IngestDirAsync runs IngestDir on the background pool and delivers
// the report to onDone. The single-worker pool serializes batches.
func (p *Pipeline) IngestDirAsync(ctx context.Context, dir string, onProgress BatchProgressFunc, onDone func(*BatchReport, error)) error {
	return p.pool.Submit(func() {
		report, err := p.IngestDir(ctx, dir, onProgress)
		if onDone != nil {
			onDone(report, err)
		}
	})
}
