package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/pkg/logger"
	"github.com/okian/raffle/pkg/metrics"
)

// Ledger drivers understood by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const winnerColumns = "id, guide_id, name, supervisor, department, nps, nrpc, refund_percent, total_tickets, won_at, recorded_at"

// dialect captures the differences between supported SQL engines.
type dialect struct {
	driver      string
	schemaFile  string
	placeholder func(i int) string
	isUnique    func(err error) bool
}

var dialects = map[string]dialect{
	DriverSQLite: {
		driver:      "sqlite",
		schemaFile:  "schema/sqlite.sql",
		placeholder: func(int) string { return "?" },
		isUnique:    sqliteUniqueViolation,
	},
	DriverPostgres: {
		driver:      "postgres",
		schemaFile:  "schema/postgres.sql",
		placeholder: func(i int) string { return fmt.Sprintf("$%d", i) },
		isUnique:    postgresUniqueViolation,
	},
}

func sqliteUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func postgresUniqueViolation(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == "23505"
}

// SQLStore is a Store backed by database/sql. It runs on sqlite and Postgres.
type SQLStore struct {
	// mu guards db. Operations hold it for reading so Close waits for them.
	mu           sync.RWMutex
	db           *sql.DB
	dialect      dialect
	insertSQL    string
	logger       logger.Logger
	maxOpenConns int
}

// Open returns the ledger for driver. dsn is ignored for the memory driver.
func Open(ctx context.Context, driver, dsn string, l logger.Logger) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryStore(ctx), nil
	case DriverSQLite, DriverPostgres:
		return OpenSQL(ctx, driver, dsn, WithSQLLogger(l))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// OpenSQL opens dsn with the named driver and applies the schema.
func OpenSQL(ctx context.Context, driver, dsn string, opts ...SQLOption) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s ledger: dsn is required", driver)
	}

	s := &SQLStore{dialect: d, logger: logger.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if driver == DriverSQLite && strings.Contains(dsn, ":memory:") {
		// Every pooled connection would otherwise see its own empty database.
		s.maxOpenConns = 1
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s ledger: %w", driver, err)
	}
	if s.maxOpenConns > 0 {
		db.SetMaxOpenConns(s.maxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s ledger: %w", driver, err)
	}
	s.db = db

	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	ph := make([]string, 11)
	for i := range ph {
		ph[i] = d.placeholder(i + 1)
	}
	s.insertSQL = fmt.Sprintf("INSERT INTO winners (%s) VALUES (%s)", winnerColumns, strings.Join(ph, ", "))

	s.logger.Info(ctx, "ledger opened", logger.String("driver", driver))
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	ddl, err := schemaFS.ReadFile(s.dialect.schemaFile)
	if err != nil {
		return fmt.Errorf("read ledger schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply ledger schema: %w", err)
	}
	return nil
}

// Append implements Store.Append inside a single transaction.
func (s *SQLStore) Append(ctx context.Context, winners []model.Winner) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerAppendLatency(float64(time.Since(start).Milliseconds()))
		if err != nil {
			metrics.RecordErrorByComponent("repository", "append")
		}
	}()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}

	seen := make(map[string]struct{}, len(winners))
	for _, w := range winners {
		if _, ok := seen[w.GuideID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateGuide, w.GuideID)
		}
		seen[w.GuideID] = struct{}{}
		if w.TotalTickets > math.MaxInt64 {
			return fmt.Errorf("%w: %s", ErrTicketsOverflow, w.GuideID)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, s.insertSQL)
	if err != nil {
		return fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()

	for _, w := range winners {
		_, err = stmt.ExecContext(ctx,
			w.ID, w.GuideID, w.Name, w.Supervisor, w.Department,
			w.NPS, w.NRPC, w.RefundPercent, int64(w.TotalTickets),
			w.WonAt.UnixNano(), w.RecordedAt.UnixNano(),
		)
		if err != nil {
			if s.dialect.isUnique(err) {
				err = fmt.Errorf("%w: %s", ErrDuplicateGuide, w.GuideID)
				return err
			}
			return fmt.Errorf("insert winner %s: %w", w.GuideID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// ListAll implements Store.ListAll.
func (s *SQLStore) ListAll(ctx context.Context) ([]model.Winner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+winnerColumns+" FROM winners ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("list winners: %w", err)
	}
	defer rows.Close()

	out := []model.Winner{}
	for rows.Next() {
		var (
			w          model.Winner
			tickets    int64
			wonAt      int64
			recordedAt int64
		)
		if err := rows.Scan(
			&w.ID, &w.GuideID, &w.Name, &w.Supervisor, &w.Department,
			&w.NPS, &w.NRPC, &w.RefundPercent, &tickets, &wonAt, &recordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan winner: %w", err)
		}
		w.TotalTickets = uint64(tickets)
		w.WonAt = time.Unix(0, wonAt).UTC()
		w.RecordedAt = time.Unix(0, recordedAt).UTC()
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list winners: %w", err)
	}
	return out, nil
}

// Count implements Store.Count.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM winners").Scan(&n); err != nil {
		return 0, fmt.Errorf("count winners: %w", err)
	}
	return n, nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
