package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gaugeScope/internal/model"
)

func TestJsonlStorageAppendsAndScans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "logs.jsonl")
	sink := NewJsonlStorage(path)

	first := []model.LogRecord{
		{ChainID: 137, BlockNumber: 41250000, LogIndex: 0, TxHash: "0x01", Topics: []string{"0xaa"}},
		{ChainID: 137, BlockNumber: 41250000, LogIndex: 1, TxHash: "0x01", Topics: []string{"0xbb"}},
	}
	if err := sink.PutLogBatch(first); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := sink.PutLogBatch(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if err := sink.PutLogBatch([]model.LogRecord{{ChainID: 137, BlockNumber: 41250001, TxHash: "0x02"}}); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var blocks []uint64
	err = ScanLogRecords(file, func(record *model.LogRecord, parseErr error) error {
		if parseErr != nil {
			return parseErr
		}
		blocks = append(blocks, record.BlockNumber)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(blocks) != 3 || blocks[2] != 41250001 {
		t.Fatalf("blocks: %v", blocks)
	}
}

func TestScanLogRecordsReportsBadLines(t *testing.T) {
	input := "{\"block_number\":1}\n\n{broken\n{\"block_number\":2}\n"

	var good, bad int
	err := ScanLogRecords(strings.NewReader(input), func(record *model.LogRecord, parseErr error) error {
		if parseErr != nil {
			bad++
			return nil
		}
		good++
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if good != 2 || bad != 1 {
		t.Fatalf("good=%d bad=%d", good, bad)
	}
}

func TestScanLogRecordsStopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := ScanLogRecords(strings.NewReader("{}\n{}\n{}\n"), func(*model.LogRecord, error) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestCreateJSONLTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	for _, value := range []string{"first", "second"} {
		w, err := CreateJSONL(path, false)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := w.Write(map[string]string{"v": value}); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "{\"v\":\"second\"}\n" {
		t.Fatalf("content: %q", data)
	}

	var nilWriter *JSONLWriter
	if err := nilWriter.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
