// Copyright © 2026 scrollterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: term/history/index.go
// Summary: SQLite-backed search index over finalized scrollback lines.
//
// Output is queued and written in batches off the event loop; Search is
// served directly from the database.

package history

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	defaultBatchSize    = 100
	defaultBatchTimeout = 2 * time.Second
	defaultChannelSize  = 1000
)

// Result is a single search match.
type Result struct {
	LineIdx   int64
	Timestamp time.Time
	Content   string
}

type entry struct {
	lineIdx int64
	ts      time.Time
	content string
}

// Index stores the plain text of finalized lines for later lookup.
type Index struct {
	db      *sql.DB
	ch      chan entry
	flushCh chan chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

// Open creates or opens an index at dbPath.
func Open(dbPath string) (*Index, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", dbPath, err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS lines (
			line_idx  INTEGER PRIMARY KEY,
			ts        INTEGER NOT NULL,
			content   TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS lines_ts ON lines(ts);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: schema: %w", err)
	}

	idx := &Index{
		db:      db,
		ch:      make(chan entry, defaultChannelSize),
		flushCh: make(chan chan struct{}),
	}
	idx.wg.Add(1)
	go idx.writer()
	return idx, nil
}

// Add queues a finalized line for indexing. Drops the entry if the
// writer cannot keep up; the index is a convenience, never a bottleneck.
func (x *Index) Add(lineIdx int64, ts time.Time, content string) {
	x.mu.Lock()
	closed := x.closed
	x.mu.Unlock()
	if closed {
		return
	}
	select {
	case x.ch <- entry{lineIdx, ts, content}:
	default:
		log.Printf("History: index queue full, dropping line %d", lineIdx)
	}
}

// Search returns up to limit lines whose text contains query, newest
// first.
func (x *Index) Search(query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(query) + "%"
	rows, err := x.db.Query(`
		SELECT line_idx, ts, content FROM lines
		WHERE content LIKE ? ESCAPE '\'
		ORDER BY line_idx DESC LIMIT ?`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("history: search: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		var ts int64
		if err := rows.Scan(&r.LineIdx, &ts, &r.Content); err != nil {
			return nil, err
		}
		r.Timestamp = time.UnixMilli(ts)
		out = append(out, r)
	}
	return out, rows.Err()
}

// FindLineAt returns the line index at or just before the given time.
func (x *Index) FindLineAt(t time.Time) (int64, error) {
	var idx int64
	err := x.db.QueryRow(`
		SELECT line_idx FROM lines WHERE ts <= ?
		ORDER BY ts DESC LIMIT 1`, t.UnixMilli()).Scan(&idx)
	if err != nil {
		return 0, err
	}
	return idx, nil
}

// Flush blocks until all queued entries are written. After Close it
// returns immediately; Close already drained the queue.
func (x *Index) Flush() {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return
	}
	done := make(chan struct{})
	x.flushCh <- done
	<-done
}

// Close flushes pending writes and closes the database.
func (x *Index) Close() error {
	x.mu.Lock()
	if x.closed {
		x.mu.Unlock()
		return nil
	}
	x.closed = true
	x.mu.Unlock()

	close(x.ch)
	x.wg.Wait()
	return x.db.Close()
}

func (x *Index) writer() {
	defer x.wg.Done()
	batch := make([]entry, 0, defaultBatchSize)
	timer := time.NewTimer(defaultBatchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := x.writeBatch(batch); err != nil {
			log.Printf("History: batch write failed: %v", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case e, ok := <-x.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, e)
			if len(batch) >= defaultBatchSize {
				flush()
			}
		case done := <-x.flushCh:
			// Drain whatever is already queued before reporting.
			for {
				select {
				case e, ok := <-x.ch:
					if !ok {
						flush()
						close(done)
						return
					}
					batch = append(batch, e)
					continue
				default:
				}
				break
			}
			flush()
			close(done)
		case <-timer.C:
			flush()
			timer.Reset(defaultBatchTimeout)
		}
	}
}

func (x *Index) writeBatch(batch []entry) error {
	tx, err := x.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO lines (line_idx, ts, content)
		VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, e := range batch {
		if _, err := stmt.Exec(e.lineIdx, e.ts.UnixMilli(), e.content); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
