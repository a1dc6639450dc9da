package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// AnalysisRecord is one row of the analyses table.
type AnalysisRecord struct {
	AnalysisID     string    `db:"analysis_id"`
	Variant        string    `db:"variant"`
	Position       string    `db:"position"`
	BestMove       string    `db:"best_move"`
	Score          int       `db:"score"`
	WinProbability float64   `db:"win_probability"`
	Depth          int       `db:"depth"`
	Nodes          int64     `db:"nodes"`
	ElapsedMs      int64     `db:"elapsed_ms"`
	BookHit        bool      `db:"book_hit"`
	CreatedUTC     time.Time `db:"created_utc"`
}

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	analysis_id TEXT PRIMARY KEY,
	variant TEXT NOT NULL,
	position TEXT NOT NULL,
	best_move TEXT NOT NULL,
	score INTEGER NOT NULL,
	win_probability REAL NOT NULL,
	depth INTEGER NOT NULL,
	nodes INTEGER NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	book_hit INTEGER NOT NULL DEFAULT 0,
	created_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_analyses_variant ON analyses(variant);
CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_utc);
`

// Store persists analysis history to SQLite. Writes go through a buffered
// channel and a single writer goroutine so request handlers never block on
// disk; a failed write degrades the store instead of failing requests.
type Store struct {
	db        *sql.DB
	path      string
	writeChan chan func(*sql.Tx) error
	healthy   atomic.Bool
	cancel    context.CancelFunc
	ctx       context.Context
	wg        sync.WaitGroup
}

func NewStore(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		db:        db,
		path:      dataSourceName,
		writeChan: make(chan func(*sql.Tx) error, 256),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.healthy.Store(true)

	s.wg.Add(1)
	go s.writerLoop()
	return s, nil
}

func (s *Store) writerLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			deadline := time.After(2 * time.Second)
			for {
				select {
				case fn := <-s.writeChan:
					if s.healthy.Load() {
						s.executeWrite(fn)
					}
				case <-deadline:
					return
				default:
					return
				}
			}
		case fn := <-s.writeChan:
			if !s.healthy.Load() {
				continue
			}
			s.executeWrite(fn)
		}
	}
}

func (s *Store) executeWrite(fn func(*sql.Tx) error) {
	tx, err := s.db.Begin()
	if err != nil {
		log.Printf("[server:store] degraded, begin failed: %v", err)
		s.healthy.Store(false)
		return
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		log.Printf("[server:store] degraded, write failed: %v", err)
		s.healthy.Store(false)
		return
	}
	if err := tx.Commit(); err != nil {
		log.Printf("[server:store] degraded, commit failed: %v", err)
		s.healthy.Store(false)
	}
}

// RecordAnalysis queues an analysis row. Writes are dropped, never blocked on,
// when the store is degraded or the queue is full.
func (s *Store) RecordAnalysis(record AnalysisRecord) {
	if !s.healthy.Load() {
		return
	}
	select {
	case s.writeChan <- func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO analyses (
			analysis_id, variant, position, best_move, score,
			win_probability, depth, nodes, elapsed_ms, book_hit, created_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.AnalysisID, record.Variant, record.Position, record.BestMove, record.Score,
			record.WinProbability, record.Depth, record.Nodes, record.ElapsedMs, record.BookHit, record.CreatedUTC,
		)
		return err
	}:
	default:
		log.Printf("[server:store] write queue full, dropping analysis %s", record.AnalysisID)
	}
}

// QueryAnalyses lists recent analyses, newest first, optionally filtered by
// variant.
func (s *Store) QueryAnalyses(variant string, limit int) ([]AnalysisRecord, error) {
	query := `SELECT analysis_id, variant, position, best_move, score,
		win_probability, depth, nodes, elapsed_ms, book_hit, created_utc
	FROM analyses WHERE 1=1`
	var args []interface{}
	if variant != "" && variant != "*" {
		query += " AND variant = ?"
		args = append(args, variant)
	}
	query += " ORDER BY created_utc DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var records []AnalysisRecord
	for rows.Next() {
		var r AnalysisRecord
		if err := rows.Scan(
			&r.AnalysisID, &r.Variant, &r.Position, &r.BestMove, &r.Score,
			&r.WinProbability, &r.Depth, &r.Nodes, &r.ElapsedMs, &r.BookHit, &r.CreatedUTC,
		); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return records, nil
}

// GetAnalysis fetches one analysis by id. ok is false when no row exists.
func (s *Store) GetAnalysis(id string) (AnalysisRecord, bool, error) {
	var r AnalysisRecord
	err := s.db.QueryRow(`SELECT analysis_id, variant, position, best_move, score,
		win_probability, depth, nodes, elapsed_ms, book_hit, created_utc
	FROM analyses WHERE analysis_id = ?`, id).Scan(
		&r.AnalysisID, &r.Variant, &r.Position, &r.BestMove, &r.Score,
		&r.WinProbability, &r.Depth, &r.Nodes, &r.ElapsedMs, &r.BookHit, &r.CreatedUTC,
	)
	if err == sql.ErrNoRows {
		return AnalysisRecord{}, false, nil
	}
	if err != nil {
		return AnalysisRecord{}, false, fmt.Errorf("get analysis: %w", err)
	}
	return r, true, nil
}

func (s *Store) IsHealthy() bool { return s.healthy.Load() }

// Flush waits for queued writes to land, for tests and shutdown paths that
// read back immediately.
func (s *Store) Flush() {
	done := make(chan struct{})
	select {
	case s.writeChan <- func(*sql.Tx) error { close(done); return nil }:
		<-done
	default:
	}
}

// InitDB creates the schema.
func (s *Store) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin init: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return tx.Commit()
}

// DeleteDB closes the store and removes the database file.
func (s *Store) DeleteDB() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete database file: %w", err)
	}
	return nil
}

// Close stops the writer and closes the database.
func (s *Store) Close() error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		log.Printf("[server:store] writer shutdown timeout, queued writes may be lost")
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
