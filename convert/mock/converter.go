// Package mock provides a scriptable Converter for tests.
package mock

import (
	"context"
	"sync"

	"github.com/poiesic/doctalk/convert"
)

// Converter records calls and delegates to ConvertFunc.
type Converter struct {
	mu          sync.Mutex
	calls       []string
	ConvertFunc func(ctx context.Context, data []byte, filename string, onProgress convert.ProgressFunc) (string, error)
}

var _ convert.Converter = (*Converter)(nil)

func (c *Converter) Convert(ctx context.Context, data []byte, filename string, onProgress convert.ProgressFunc) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, filename)
	c.mu.Unlock()
	if c.ConvertFunc != nil {
		return c.ConvertFunc(ctx, data, filename, onProgress)
	}
	return "converted: " + filename, nil
}

// Calls returns the filenames passed to Convert, in order.
func (c *Converter) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}
