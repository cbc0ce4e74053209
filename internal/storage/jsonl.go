package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gaugeScope/internal/model"
)

const maxLineBytes = 10 * 1024 * 1024

// JsonlStorage appends log records to a JSONL file, one batch per call.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutLogBatch appends a batch of log records as JSON lines. The batch is
// flushed before returning so a checkpoint saved afterwards never points
// past data on disk.
func (s *JsonlStorage) PutLogBatch(logs []model.LogRecord) error {
	if len(logs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := CreateJSONL(s.path, true)
	if err != nil {
		return err
	}
	for _, record := range logs {
		if err := w.Write(record); err != nil {
			w.Close()
			return fmt.Errorf("write log record: %w", err)
		}
	}
	return w.Close()
}

// JSONLWriter writes one JSON document per line.
type JSONLWriter struct {
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
}

// CreateJSONL opens path for writing and creates missing parent
// directories. Without appendMode an existing file is truncated.
func CreateJSONL(path string, appendMode bool) (*JSONLWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	buf := bufio.NewWriter(file)
	return &JSONLWriter{file: file, buf: buf, enc: json.NewEncoder(buf)}, nil
}

func (w *JSONLWriter) Write(v any) error {
	return w.enc.Encode(v)
}

// Close flushes buffered lines and closes the file. A nil writer is a no-op.
func (w *JSONLWriter) Close() error {
	if w == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	return w.file.Close()
}

// ScanLogRecords calls fn for every non-empty line of r. A line that is not
// a valid record reaches fn with a nil record and the parse error; fn
// decides whether that stops the scan.
func ScanLogRecords(r io.Reader, fn func(record *model.LogRecord, parseErr error) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			if err := fn(nil, err); err != nil {
				return err
			}
			continue
		}
		if err := fn(&record, nil); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}
