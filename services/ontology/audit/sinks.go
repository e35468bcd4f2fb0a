// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package audit

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v4"

	ontobadger "github.com/AleutianAI/AleutianOntology/services/ontology/storage/badger"
)

// =============================================================================
// File Sink
// =============================================================================

// FileSink appends events as JSON lines to a file.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileSink opens path for appending, creating parent directories.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create audit log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &FileSink{file: file, enc: json.NewEncoder(file)}, nil
}

// Write appends one JSON line.
func (s *FileSink) Write(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return os.ErrClosed
	}
	return s.enc.Encode(event)
}

// Close syncs and closes the file. Safe to call more than once.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	syncErr := s.file.Sync()
	closeErr := s.file.Close()
	s.file = nil
	if syncErr != nil {
		return syncErr
	}
	return closeErr
}

// =============================================================================
// Badger Sink
// =============================================================================

// keyPrefix namespaces audit events in the database.
var keyPrefix = []byte("audit/")

// BadgerSink stores events in BadgerDB under time-ordered keys:
//
//	"audit/" + big-endian unix nanos + event id
//
// so a reverse prefix scan yields newest first.
type BadgerSink struct {
	db     *ontobadger.DB
	ownsDB bool
}

// NewBadgerSink stores events in db. The caller keeps ownership of db.
func NewBadgerSink(db *ontobadger.DB) *BadgerSink {
	return &BadgerSink{db: db}
}

// OpenBadgerSink opens a database with cfg and owns it; Close closes it.
func OpenBadgerSink(cfg ontobadger.Config) (*BadgerSink, error) {
	db, err := ontobadger.OpenDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open audit store: %w", err)
	}
	return &BadgerSink{db: db, ownsDB: true}, nil
}

func eventKey(e *Event) []byte {
	key := make([]byte, 0, len(keyPrefix)+8+len(e.ID))
	key = append(key, keyPrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(e.Timestamp.UnixNano()))
	return append(key, e.ID...)
}

// Write stores one event.
func (s *BadgerSink) Write(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set(eventKey(&event), data)
	})
}

// Query returns matching events, newest first.
func (s *BadgerSink) Query(ctx context.Context, filter Filter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	events := make([]Event, 0, min(limit, 64))
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, keyPrefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(keyPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var event Event
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			}); err != nil {
				return fmt.Errorf("decode audit event: %w", err)
			}
			if !filter.Since.IsZero() && event.Timestamp.Before(filter.Since) {
				break
			}
			if !filter.matches(&event) {
				continue
			}
			events = append(events, event)
			if len(events) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Recent returns the n newest events.
func (s *BadgerSink) Recent(ctx context.Context, n int) ([]Event, error) {
	return s.Query(ctx, Filter{Limit: n})
}

// Close closes the database if the sink opened it.
func (s *BadgerSink) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

var (
	_ Sink    = (*FileSink)(nil)
	_ Sink    = (*BadgerSink)(nil)
	_ Querier = (*BadgerSink)(nil)
)
