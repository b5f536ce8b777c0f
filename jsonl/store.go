// Package jsonl implements the append-only record log backing every ledger.
// One Store manages one newline-delimited UTF-8 JSON file. Appends and
// rewrites are serialized by a per-store write lock so concurrent writers
// can never interleave partial lines; reads take the shared lock and
// therefore never observe a torn line.
//
// The full-log Rewrite used for status updates and clears is the simple
// baseline for small logs. Updating a single record by id at scale would
// want an id→offset index or a compacting keyed store instead.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// maxLineSize bounds a single stored line. Embedding vectors make memory
// lines large, so the scanner buffer is generous.
const maxLineSize = 16 * 1024 * 1024

// CorruptRecordError reports a stored line that fails to unmarshal. A
// malformed line is data corruption, not something to skip silently.
type CorruptRecordError struct {
	Path string
	Line int
	Err  error
}

// Error implements the error interface.
func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("jsonl: corrupt record at %s:%d: %v", e.Path, e.Line, e.Err)
}

// Unwrap returns the underlying unmarshal error.
func (e *CorruptRecordError) Unwrap() error { return e.Err }

// Store is a durable, ordered, line-delimited record log for values of type
// T. The zero value is not usable; construct with NewStore.
type Store[T any] struct {
	mu   sync.RWMutex
	path string
}

// NewStore creates a Store over the given file path. The backing file is
// created lazily by Ensure or the first write.
func NewStore[T any](path string) *Store[T] {
	return &Store[T]{path: path}
}

// Path returns the backing file path.
func (s *Store[T]) Path() string { return s.path }

// Ensure creates the backing directory and file if absent. Idempotent.
func (s *Store[T]) Ensure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked()
}

func (s *Store[T]) ensureLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("jsonl: create dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("jsonl: create file: %w", err)
	}
	return f.Close()
}

// Append serializes rec and writes it as one line. The line is written with
// a single write call under the store's write lock, so concurrent appends
// land as whole, separately parseable lines.
func (s *Store[T]) Append(rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("jsonl: marshal record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLocked(); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("jsonl: open for append: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("jsonl: append: %w", err)
	}
	return f.Close()
}

// All returns every record in append order, oldest first. A missing or
// empty file yields an empty slice without error.
func (s *Store[T]) All() ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readLocked()
}

func (s *Store[T]) readLocked() ([]T, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("jsonl: open for read: %w", err)
	}
	defer f.Close()

	out := []T{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, &CorruptRecordError{Path: s.path, Line: lineNo, Err: err}
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("jsonl: scan: %w", err)
	}
	return out, nil
}

// Rewrite atomically replaces the entire log with the given ordered
// records. The new contents are staged in a temp file and renamed over the
// original so readers see either the old log or the new one, never a
// partial write.
func (s *Store[T]) Rewrite(recs []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(recs)
}

func (s *Store[T]) writeLocked(recs []T) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("jsonl: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("jsonl: create temp: %w", err)
	}
	w := bufio.NewWriter(tmp)
	for _, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("jsonl: marshal record: %w", err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("jsonl: write: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonl: flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonl: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonl: replace log: %w", err)
	}
	return nil
}

// Update applies fn to the full record list under the write lock, covering
// the whole read → mutate → write sequence. fn returns the replacement list
// and whether anything changed; an unchanged log is left byte-identical.
func (s *Store[T]) Update(fn func(recs []T) ([]T, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.readLocked()
	if err != nil {
		return err
	}
	out, changed := fn(recs)
	if !changed {
		return nil
	}
	return s.writeLocked(out)
}

// Clear empties the log, leaving an existing (now zero-length) file behind.
func (s *Store[T]) Clear() error {
	return s.Rewrite(nil)
}
