package batch

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
)

// DefaultSize is the number of rows held before a flush
const DefaultSize = 500

// FlushFunc writes rows to the store in one round trip
type FlushFunc func(ctx context.Context, rows []*model.EventRow) error

// Writer buffers at most size rows and hands them to flush. It is used by
// a single goroutine.
type Writer struct {
	size    int
	flush   FlushFunc
	buf     []*model.EventRow
	flushed int
	closed  bool
}

// NewWriter creates a Writer. A size below 1 means DefaultSize.
func NewWriter(size int, flush FlushFunc) *Writer {
	if size < 1 {
		size = DefaultSize
	}
	return &Writer{
		size:  size,
		flush: flush,
		buf:   make([]*model.EventRow, 0, size),
	}
}

// Write appends a row and flushes when the buffer is full
func (w *Writer) Write(ctx context.Context, row *model.EventRow) error {
	if w.closed {
		return goerr.New("write to closed writer")
	}

	w.buf = append(w.buf, row)
	if len(w.buf) >= w.size {
		return w.Flush(ctx)
	}
	return nil
}

// Flush writes buffered rows
func (w *Writer) Flush(ctx context.Context) error {
	if len(w.buf) == 0 {
		return nil
	}

	if err := w.flush(ctx, w.buf); err != nil {
		return goerr.Wrap(err, "failed to flush rows", goerr.V("rows", len(w.buf)))
	}

	w.flushed += len(w.buf)
	w.buf = w.buf[:0]
	return nil
}

// Close flushes pending rows. Calling Close twice is a no-op.
func (w *Writer) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.Flush(ctx)
}

// Flushed returns the number of rows written so far
func (w *Writer) Flushed() int {
	return w.flushed
}

type rowKey struct {
	repo   string
	userID int64
}

// Dedupe returns rows with one entry per (repo_full_name, user_id), keeping the
// most recently extracted version at the position of the first occurrence
func Dedupe(rows []*model.EventRow) []*model.EventRow {
	index := make(map[rowKey]int, len(rows))
	out := make([]*model.EventRow, 0, len(rows))

	for _, row := range rows {
		key := rowKey{repo: row.RepoFullName, userID: row.UserID}
		if i, ok := index[key]; ok {
			if !out[i].ExtractedAt.After(row.ExtractedAt) {
				out[i] = row
			}
			continue
		}
		index[key] = len(out)
		out = append(out, row)
	}
	return out
}
