package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/tribesim/internal/season"
)

// archiveRecord is one line of the archive: the run index plus its
// full season result.
type archiveRecord struct {
	Run    int            `json:"run"`
	Result *season.Result `json:"result"`
}

// Archive writes full per-run season results as zstd-compressed JSON
// lines. Safe for concurrent Append calls from simulation workers.
type Archive struct {
	mu   sync.Mutex
	f    *os.File
	zw   *zstd.Encoder
	enc  *json.Encoder
	path string
}

// CreateArchive opens a new archive file, truncating any existing one.
func CreateArchive(path string) (*Archive, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	return &Archive{
		f:    f,
		zw:   zw,
		enc:  json.NewEncoder(zw),
		path: path,
	}, nil
}

// Append writes one season result to the archive.
func (a *Archive) Append(run int, res *season.Result) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.enc.Encode(archiveRecord{Run: run, Result: res}); err != nil {
		return fmt.Errorf("archive run %d: %w", run, err)
	}
	return nil
}

// Close flushes the compressor and closes the file.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.zw.Close(); err != nil {
		a.f.Close()
		return fmt.Errorf("close archive %s: %w", a.path, err)
	}
	return a.f.Close()
}

// ReadArchive streams every record of an archive in file order,
// invoking fn per record. Run indices do not arrive sorted; workers
// append in completion order.
func ReadArchive(path string, fn func(run int, res *season.Result) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("zstd reader: %w", err)
	}
	defer zr.Close()

	dec := json.NewDecoder(zr)
	for {
		var rec archiveRecord
		if err := dec.Decode(&rec); err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("decode archive record: %w", err)
		}
		if err := fn(rec.Run, rec.Result); err != nil {
			return err
		}
	}
}
