// Package selfmodel stores the agent's running self-state: goals, emotions
// and notes, appended as immutable snapshots. The current state is simply
// the most recently appended snapshot.
package selfmodel

import (
	"time"

	"github.com/hupe1980/agentmind/core"
	"github.com/hupe1980/agentmind/jsonl"
	"github.com/hupe1980/agentmind/logging"
)

// Options configures a self-model Ledger.
type Options struct {
	Logger logging.Logger
}

// Ledger is the append-only self-state log.
type Ledger struct {
	store  *jsonl.Store[core.SelfState]
	logger logging.Logger
}

// NewLedger creates a self-model ledger backed by the jsonl file at path.
func NewLedger(path string, optFns ...func(o *Options)) (*Ledger, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	store := jsonl.NewStore[core.SelfState](path)
	if err := store.Ensure(); err != nil {
		return nil, err
	}
	opts.Logger.Info("SelfModel storage ready", "path", store.Path())
	return &Ledger{store: store, logger: opts.Logger}, nil
}

// RecordState appends the state and returns it as confirmation. A zero
// timestamp is stamped with the current time; nil collections are
// normalized to empty so the stored schema stays uniform.
func (l *Ledger) RecordState(state core.SelfState) (core.SelfState, error) {
	if state.Timestamp.IsZero() {
		state.Timestamp = time.Now().UTC()
	}
	if state.Goals == nil {
		state.Goals = []string{}
	}
	if state.Emotions == nil {
		state.Emotions = map[string]float64{}
	}
	if state.Tags == nil {
		state.Tags = []string{}
	}
	if err := l.store.Append(state); err != nil {
		return core.SelfState{}, err
	}
	l.logger.Info("SelfModel state recorded", "timestamp", state.Timestamp)
	return state, nil
}

// CurrentState returns the most recently appended state, or nil if none exist.
func (l *Ledger) CurrentState() (*core.SelfState, error) {
	recs, err := l.store.All()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	last := recs[len(recs)-1]
	return &last, nil
}

// History returns the last limit states in append order.
func (l *Ledger) History(limit int) ([]core.SelfState, error) {
	recs, err := l.store.All()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	return recs, nil
}

// Clear empties the ledger.
func (l *Ledger) Clear() error {
	if err := l.store.Clear(); err != nil {
		return err
	}
	l.logger.Warn("SelfModel storage cleared")
	return nil
}
