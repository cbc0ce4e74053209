// Package projector feeds a raw log stream through the projection engine.
package projector

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"gaugeScope/internal/contracts"
	"gaugeScope/internal/model"
	"gaugeScope/internal/observability"
	"gaugeScope/internal/storage"
)

// Applier applies one decoded event.
type Applier interface {
	Apply(ctx context.Context, ev *model.Event) error
}

// Config controls projector behavior.
type Config struct {
	// Voter filters voter-level events. The zero address accepts any.
	Voter      common.Address
	BatchSize  int
	StateStore StateStore
}

// Stats summarises one run.
type Stats struct {
	Total     int
	Applied   int
	Skipped   int
	Ignored   int
	Malformed int
}

// Projector reads LogRecord JSONL in chain order and applies each log once.
type Projector struct {
	cfg     Config
	decoder *contracts.EventDecoder
	engine  Applier
	logger  *zap.Logger
	metrics *observability.Metrics
	// seen holds the keys of logs in seenBlock only. Input is in chain
	// order, so a redelivered log always shares its original's block.
	seen      map[string]struct{}
	seenBlock uint64
}

func New(cfg Config, decoder *contracts.EventDecoder, engine Applier, logger *zap.Logger, metrics *observability.Metrics) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Projector{
		cfg:     cfg,
		decoder: decoder,
		engine:  engine,
		logger:  logger,
		metrics: metrics,
		seen:    make(map[string]struct{}),
	}
}

// Run projects every log in the JSONL file at inputPath.
func (p *Projector) Run(ctx context.Context, inputPath string) (Stats, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return Stats{}, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	return p.Process(ctx, file)
}

// Process projects every log read from r. Progress is saved every
// BatchSize consumed logs, at the end, and before returning an apply error.
func (p *Projector) Process(ctx context.Context, r io.Reader) (Stats, error) {
	var stats Stats
	if p.decoder == nil {
		return stats, fmt.Errorf("decoder is nil")
	}
	if p.engine == nil {
		return stats, fmt.Errorf("engine is nil")
	}

	start, resumed, err := p.loadPosition(ctx)
	if err != nil {
		return stats, err
	}
	if resumed {
		p.logger.Info("resume from state", zap.Uint64("block", start.BlockNumber), zap.Uint64("log_index", start.LogIndex))
	}

	last := start
	dirty := false
	pending := 0

	err = storage.ScanLogRecords(r, func(record *model.LogRecord, parseErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Total++
		if parseErr != nil {
			stats.Malformed++
			p.logger.Warn("parse log record", zap.Error(parseErr))
			return nil
		}

		pos := storage.Position{BlockNumber: record.BlockNumber, LogIndex: record.LogIndex}
		if resumed && !start.Before(pos) {
			stats.Skipped++
			return nil
		}

		result, err := p.project(ctx, *record)
		if err != nil {
			return err
		}
		switch result {
		case outcomeApplied:
			stats.Applied++
		case outcomeSkipped:
			stats.Skipped++
		case outcomeIgnored:
			stats.Ignored++
		case outcomeMalformed:
			stats.Malformed++
		}

		if !dirty || last.Before(pos) {
			last = pos
			dirty = true
		}
		pending++
		if pending >= p.cfg.BatchSize {
			if err := p.saveState(ctx, last); err != nil {
				return err
			}
			pending = 0
		}
		return nil
	})
	if err != nil {
		if dirty {
			// Keep what was applied; the failing log is retried next run.
			if saveErr := p.saveState(context.WithoutCancel(ctx), last); saveErr != nil {
				p.logger.Warn("save state after failure", zap.Error(saveErr))
			}
		}
		return stats, err
	}

	if dirty {
		if err := p.saveState(ctx, last); err != nil {
			return stats, err
		}
	}

	p.logger.Info("project complete",
		zap.Int("total", stats.Total),
		zap.Int("applied", stats.Applied),
		zap.Int("skipped", stats.Skipped),
		zap.Int("ignored", stats.Ignored),
		zap.Int("malformed", stats.Malformed),
		zap.Uint64("last_block", last.BlockNumber),
	)
	return stats, nil
}

type outcome int

const (
	outcomeApplied outcome = iota
	outcomeSkipped
	outcomeIgnored
	outcomeMalformed
)

func (p *Projector) project(ctx context.Context, record model.LogRecord) (outcome, error) {
	if record.Removed {
		p.metrics.Skipped(observability.SkipRemoved)
		p.logger.Info("removed log", zap.Uint64("block", record.BlockNumber), zap.String("tx", record.TxHash))
		return outcomeSkipped, nil
	}
	if p.isDuplicate(record) {
		p.metrics.Skipped(observability.SkipDuplicate)
		return outcomeSkipped, nil
	}
	if !p.decoder.CanDecode(record.Topic0()) {
		return outcomeIgnored, nil
	}

	ev, err := p.decoder.Decode(record)
	if err != nil {
		p.metrics.DecodeFailed()
		p.logger.Warn("decode log",
			zap.Error(err),
			zap.Uint64("block", record.BlockNumber),
			zap.String("tx", record.TxHash),
			zap.Uint64("log_index", record.LogIndex),
		)
		return outcomeMalformed, nil
	}

	if p.foreignVoter(ev) {
		p.metrics.Skipped(observability.SkipForeignVoter)
		return outcomeSkipped, nil
	}

	return outcomeApplied, p.engine.Apply(ctx, ev)
}

// voterEvents are emitted only by the voter contract.
var voterEvents = map[string]struct{}{
	model.EventGaugeCreated:  {},
	model.EventWhitelisted:   {},
	model.EventGaugeDeposit:  {},
	model.EventGaugeWithdraw: {},
	model.EventAttach:        {},
	model.EventDetach:        {},
	model.EventVoted:         {},
	model.EventAbstained:     {},
}

func (p *Projector) foreignVoter(ev *model.Event) bool {
	if p.cfg.Voter == (common.Address{}) {
		return false
	}
	if _, ok := voterEvents[ev.Name]; !ok {
		return false
	}
	return ev.Address != p.cfg.Voter
}

func (p *Projector) isDuplicate(record model.LogRecord) bool {
	if record.BlockNumber != p.seenBlock {
		clear(p.seen)
		p.seenBlock = record.BlockNumber
	}
	key := record.Key()
	if _, ok := p.seen[key]; ok {
		return true
	}
	p.seen[key] = struct{}{}
	return false
}

func (p *Projector) loadPosition(ctx context.Context) (storage.Position, bool, error) {
	if p.cfg.StateStore == nil {
		return storage.Position{}, false, nil
	}
	pos, ok, err := p.cfg.StateStore.Load(ctx)
	if err != nil {
		return storage.Position{}, false, fmt.Errorf("load state: %w", err)
	}
	return pos, ok, nil
}

func (p *Projector) saveState(ctx context.Context, pos storage.Position) error {
	if p.cfg.StateStore == nil {
		return nil
	}
	if err := p.cfg.StateStore.Save(ctx, pos); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
