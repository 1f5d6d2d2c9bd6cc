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

// Package convert abstracts the external document conversion service.
// A Converter turns raw file bytes into extracted text; the concrete
// implementation lives in convert/docling.
package convert

import (
	"context"
	"fmt"
	"time"
)

// NoContentSentinel is returned as the extracted text when the
// conversion service produced a result with no usable content field.
// Conversion never fails solely because content is missing.
const NoContentSentinel = "No content extracted"

// Progress describes how far along a long-running operation is.
type Progress struct {
	Processed          int
	Total              int
	Percentage         int
	EstimatedRemaining time.Duration
}

// ProgressFunc receives progress updates. Implementations must be fast;
// they are called synchronously from the operation's loop.
type ProgressFunc func(Progress)

// Converter turns a file into extracted text.
type Converter interface {
	// Convert submits the file and blocks until the conversion finishes,
	// fails, or times out. onProgress may be nil.
	Convert(ctx context.Context, data []byte, filename string, onProgress ProgressFunc) (string, error)
}

// MeasureProgress computes a progress point from a processed count and
// the elapsed time, estimating the remaining duration from the average
// rate so far.
func MeasureProgress(processed, total int, elapsed time.Duration) Progress {
	p := Progress{Processed: processed, Total: total}
	if total > 0 {
		p.Percentage = int(float64(processed)/float64(total)*100 + 0.5)
	}
	if processed > 0 && elapsed > 0 {
		rate := float64(processed) / float64(elapsed)
		remaining := float64(total - processed)
		p.EstimatedRemaining = time.Duration(remaining / rate)
	}
	return p
}

// FormatRemaining renders an estimated remaining duration for humans.
func FormatRemaining(d time.Duration) string {
	if d < time.Second {
		return "Less than 1 second"
	}
	seconds := int(d.Round(time.Second) / time.Second)
	if seconds < 60 {
		return fmt.Sprintf("%d seconds", seconds)
	}
	minutes := (seconds + 30) / 60
	return fmt.Sprintf("%d minutes", minutes)
}
