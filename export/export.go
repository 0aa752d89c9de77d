package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dkarlsson/tabview/types"
)

// Streamer opens the chunked export stream for a descriptor. Satisfied by
// *client.Client.
type Streamer interface {
	Stream(ctx context.Context, d *types.QueryDescriptor) (io.ReadCloser, error)
}

// Progress is reported after every consumed chunk. Records counts complete
// newline-terminated lines seen so far; the count is informational only and
// never feeds the written file.
type Progress struct {
	JobID   string
	Records int
	Bytes   int64
}

const readChunkSize = 64 * 1024

// Exporter drains a descriptor's stream into an NDJSON file. Each Run owns
// its buffers and counter exclusively, so overlapping exports do not
// interfere.
type Exporter struct {
	streamer   Streamer
	dir        string
	onProgress func(Progress)
	now        func() time.Time
}

type Option func(*Exporter)

func WithDir(dir string) Option {
	return func(e *Exporter) { e.dir = dir }
}

func WithProgress(fn func(Progress)) Option {
	return func(e *Exporter) { e.onProgress = fn }
}

func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

func New(streamer Streamer, opts ...Option) *Exporter {
	e := &Exporter{
		streamer: streamer,
		dir:      ".",
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run consumes the stream to completion and writes
// {table}-{unix-millis}.ndjson, the millis taken at export start. The raw
// chunks are buffered verbatim and concatenated byte for byte; any read
// failure discards them all and produces no file.
func (e *Exporter) Run(ctx context.Context, d *types.QueryDescriptor) (path string, records int, err error) {
	started := e.now()
	jobID := uuid.NewString()

	body, err := e.streamer.Stream(ctx, d)
	if err != nil {
		return "", 0, fmt.Errorf("export: %w", err)
	}
	defer body.Close()

	var chunks [][]byte
	var total int64

	buf := make([]byte, readChunkSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			chunks = append(chunks, chunk)
			total += int64(n)
			records += bytes.Count(chunk, []byte{'\n'})
			if e.onProgress != nil {
				e.onProgress(Progress{JobID: jobID, Records: records, Bytes: total})
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			// Partial buffers are discarded; no file is produced.
			return "", 0, fmt.Errorf("export: stream read failed: %w", readErr)
		}
	}

	name := fmt.Sprintf("%s-%d.ndjson", d.Table, started.UnixMilli())
	path = filepath.Join(e.dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("export: %w", err)
	}
	for _, chunk := range chunks {
		if _, err := out.Write(chunk); err != nil {
			out.Close()
			os.Remove(path)
			return "", 0, fmt.Errorf("export: %w", err)
		}
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("export: %w", err)
	}

	return path, records, nil
}
