package execution

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/Akshit358/Finsage/internal/logger"
	"github.com/Akshit358/Finsage/internal/model"
)

// DefaultJournalDSN keeps the journal in memory so nothing outlives the
// process. Each Journal gets its own private database.
const DefaultJournalDSN = ":memory:"

// Journal records executed fills to SQLite for audit. It is write-only
// from the engine's point of view; state is never restored from it.
type Journal struct {
	mu  sync.Mutex
	db  *sql.DB
	log *logrus.Entry
}

func journalDSN(path string) string {
	if path == "" {
		return DefaultJournalDSN
	}
	if strings.Contains(path, ":memory:") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_journal=WAL&_sync=NORMAL"
}

// NewJournal opens (or creates) a SQLite fill journal. An empty path uses
// DefaultJournalDSN.
func NewJournal(path string, log *logrus.Entry) (*Journal, error) {
	if log == nil {
		log = logger.Discard()
	}
	db, err := sql.Open("sqlite3", journalDSN(path))
	if err != nil {
		return nil, err
	}
	// One long-lived connection: an in-memory database is per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	schema := `
	CREATE TABLE IF NOT EXISTS fills (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id     TEXT NOT NULL,
		user_id      TEXT NOT NULL,
		symbol       TEXT NOT NULL,
		side         TEXT NOT NULL,
		order_type   TEXT NOT NULL,
		qty          INTEGER NOT NULL,
		price        REAL NOT NULL,
		cash_after   REAL NOT NULL,
		realized_pnl REAL DEFAULT 0,
		filled_at    DATETIME NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_fills_user ON fills(user_id);
	CREATE INDEX IF NOT EXISTS idx_fills_symbol ON fills(symbol);
	CREATE INDEX IF NOT EXISTS idx_fills_filled_at ON fills(filled_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	log = log.WithField("component", "journal")
	log.WithField("path", journalDSN(path)).Info("opened fill journal")
	return &Journal{db: db, log: log}, nil
}

// RecordFill implements model.FillRecorder.
func (j *Journal) RecordFill(ctx context.Context, order model.Order, fill model.Fill) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO fills (order_id, user_id, symbol, side, order_type, qty, price, cash_after, realized_pnl, filled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.OrderID,
		fill.UserID,
		fill.Symbol,
		string(fill.Side),
		string(order.Kind),
		fill.Quantity,
		fill.Price,
		fill.CashAfter,
		fill.RealizedPnL,
		fill.FilledAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// FillRecord represents a row from the fills table.
type FillRecord struct {
	ID          int64   `json:"id"`
	OrderID     string  `json:"order_id"`
	UserID      string  `json:"user_id"`
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	OrderType   string  `json:"order_type"`
	Qty         int64   `json:"qty"`
	Price       float64 `json:"price"`
	CashAfter   float64 `json:"cash_after"`
	RealizedPnL float64 `json:"realized_pnl"`
	FilledAt    string  `json:"filled_at"`
}

// Fills returns the user's last limit fills, newest first. An empty
// userID returns fills for every user.
func (j *Journal) Fills(ctx context.Context, userID string, limit int) ([]FillRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, order_id, user_id, symbol, side, order_type, qty, price, cash_after, realized_pnl, filled_at
		 FROM fills WHERE (? = '' OR user_id = ?) ORDER BY id DESC LIMIT ?`, userID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fills []FillRecord
	for rows.Next() {
		var f FillRecord
		if err := rows.Scan(&f.ID, &f.OrderID, &f.UserID, &f.Symbol, &f.Side, &f.OrderType,
			&f.Qty, &f.Price, &f.CashAfter, &f.RealizedPnL, &f.FilledAt); err != nil {
			j.log.WithError(err).Warn("scan fill row")
			continue
		}
		fills = append(fills, f)
	}
	return fills, rows.Err()
}

// DB exposes the handle for health checks.
func (j *Journal) DB() *sql.DB {
	return j.db
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
