package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// LogRecord is one raw chain log as written by the indexer and replayed by
// the projector.
type LogRecord struct {
	ChainID     uint64   `json:"chain_id"`
	BlockNumber uint64   `json:"block_number"`
	BlockHash   string   `json:"block_hash"`
	TxHash      string   `json:"tx_hash"`
	TxIndex     uint64   `json:"tx_index"`
	LogIndex    uint64   `json:"log_index"`
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	Removed     bool     `json:"removed"`
	Timestamp   uint64   `json:"timestamp"`
	IngestedAt  string   `json:"ingested_at"`
}

// NewLogRecord normalizes a go-ethereum log. Timestamp is left to the caller.
func NewLogRecord(chainID uint64, log types.Log, ingestedAt time.Time) LogRecord {
	topics := make([]string, len(log.Topics))
	for i, topic := range log.Topics {
		topics[i] = topic.Hex()
	}

	return LogRecord{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash.Hex(),
		TxHash:      log.TxHash.Hex(),
		TxIndex:     uint64(log.TxIndex),
		LogIndex:    uint64(log.Index),
		Address:     log.Address.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(log.Data),
		Removed:     log.Removed,
		IngestedAt:  ingestedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Topic0 returns the event signature topic, or "" for anonymous logs.
func (lr LogRecord) Topic0() string {
	if len(lr.Topics) == 0 {
		return ""
	}
	return lr.Topics[0]
}

// Key identifies the log across redeliveries of the same block.
func (lr LogRecord) Key() string {
	return fmt.Sprintf("%d:%s:%d", lr.BlockNumber, strings.ToLower(lr.TxHash), lr.LogIndex)
}

// DecodeError is written to the decode error sink for a log that could not
// be turned into an Event.
type DecodeError struct {
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Address     string `json:"address"`
	Topic0      string `json:"topic0"`
	Error       string `json:"error"`
}

func NewDecodeError(lr LogRecord, err error) DecodeError {
	return DecodeError{
		ChainID:     lr.ChainID,
		BlockNumber: lr.BlockNumber,
		TxHash:      lr.TxHash,
		LogIndex:    lr.LogIndex,
		Address:     lr.Address,
		Topic0:      lr.Topic0(),
		Error:       err.Error(),
	}
}

// TokenMeta is ERC20 metadata as read from the token contract.
type TokenMeta struct {
	Address  string
	Decimals uint8
	Symbol   string
	Name     string
}
