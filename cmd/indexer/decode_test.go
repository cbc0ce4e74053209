package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"gaugeScope/internal/contracts"
	"gaugeScope/internal/model"
	"gaugeScope/internal/storage"
)

func TestDecodeLogs(t *testing.T) {
	voter, err := contracts.VoterABI()
	require.NoError(t, err)
	decoder, err := contracts.NewEventDecoder(contracts.DecoderConfig{})
	require.NoError(t, err)

	whitelisted := model.LogRecord{
		ChainID:     137,
		BlockNumber: 10,
		TxHash:      "0x01",
		Address:     "0x1000000000000000000000000000000000000001",
		Topics: []string{
			voter.Events["Whitelisted"].ID.Hex(),
			common.BytesToHash(common.HexToAddress("0x2000000000000000000000000000000000000002").Bytes()).Hex(),
			common.BytesToHash(common.HexToAddress("0x3000000000000000000000000000000000000003").Bytes()).Hex(),
		},
		Data: "0x",
	}
	unknown := whitelisted
	unknown.Topics = []string{common.HexToHash("0x1234").Hex()}
	anonymous := whitelisted
	anonymous.Topics = nil

	var lines []string
	for _, record := range []model.LogRecord{whitelisted, unknown, anonymous} {
		raw, err := json.Marshal(record)
		require.NoError(t, err)
		lines = append(lines, string(raw))
	}
	lines = append(lines, "{not json")

	dir := t.TempDir()
	events, err := storage.CreateJSONL(filepath.Join(dir, "events.jsonl"), false)
	require.NoError(t, err)
	failures, err := storage.CreateJSONL(filepath.Join(dir, "errors.jsonl"), false)
	require.NoError(t, err)

	stats, err := decodeLogs(decoder, strings.NewReader(strings.Join(lines, "\n")), events, failures)
	require.NoError(t, err)
	require.NoError(t, events.Close())
	require.NoError(t, failures.Close())

	require.Equal(t, decodeStats{Total: 4, Decoded: 1, Skipped: 1, Failed: 2}, stats)

	out, err := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	require.NoError(t, err)
	require.Contains(t, string(out), `"event_name":"Whitelisted"`)

	errs, err := os.ReadFile(filepath.Join(dir, "errors.jsonl"))
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(string(errs), "\n"))
	require.Contains(t, string(errs), "missing topic0")
}

func TestRedactDSN(t *testing.T) {
	require.Equal(t, "postgres://indexer:xxxxx@db:5432/gauges", redactDSN("postgres://indexer:secret@db:5432/gauges"))
	require.Equal(t, "***", redactDSN("host=db user=indexer password=secret"))
	require.Equal(t, "", redactDSN(""))
}
