package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	contractx "github.com/tanpawarit/salon-agent-gateway/agent/contract"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Config struct {
	DSN          string        `envconfig:"DSN" split_words:"true"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
	CreateSchema bool          `envconfig:"CREATE_SCHEMA" split_words:"true" default:"true"`
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.DSN) != ""
}

// Entry is one row of dispatch_journal.
type Entry struct {
	bun.BaseModel `bun:"table:dispatch_journal,alias:dj"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	RequestID  string    `bun:"request_id,notnull" json:"requestId,omitempty"`
	AgentName  string    `bun:"agent_name,notnull" json:"agentName"`
	Status     string    `bun:"status,notnull" json:"status"`
	Message    string    `bun:"message,notnull" json:"message,omitempty"`
	Error      string    `bun:"error,notnull" json:"error,omitempty"`
	StartedAt  time.Time `bun:"started_at,notnull" json:"startedAt"`
	FinishedAt time.Time `bun:"finished_at,notnull" json:"finishedAt"`
}

func EntryFromRecord(rec contractx.DispatchRecord) *Entry {
	status := rec.Result.Status
	if rec.Failed() {
		status = contractx.StatusError
	}
	return &Entry{
		ID:         uuid.New(),
		RequestID:  rec.RequestID,
		AgentName:  rec.AgentName,
		Status:     string(status),
		Message:    rec.Result.Message,
		Error:      rec.ErrorText(),
		StartedAt:  rec.StartedAt.UTC(),
		FinishedAt: rec.FinishedAt.UTC(),
	}
}

// Store persists dispatch outcomes in Postgres.
type Store struct {
	db      *bun.DB
	timeout time.Duration
}

var _ contractx.DispatchRecorder = (*Store)(nil)

func Open(cfg Config) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("journal dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return NewStore(bun.NewDB(sqldb, pgdialect.New()), cfg.Timeout), nil
}

func NewStore(db *bun.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{db: db, timeout: timeout}
}

func (s *Store) CreateSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.NewCreateTable().Model((*Entry)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create dispatch_journal: %w", err)
	}
	_, err := s.db.NewCreateIndex().
		Model((*Entry)(nil)).
		Index("idx_dispatch_journal_finished_at").
		IfNotExists().
		Column("finished_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create dispatch_journal index: %w", err)
	}
	return nil
}

func (s *Store) Record(ctx context.Context, rec contractx.DispatchRecord) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if _, err := s.db.NewInsert().Model(EntryFromRecord(rec)).Exec(ctx); err != nil {
		return fmt.Errorf("insert dispatch_journal: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var entries []Entry
	if err := s.recentQuery(&entries, limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select dispatch_journal: %w", err)
	}
	return entries, nil
}

func (s *Store) recentQuery(dest *[]Entry, limit int) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(dest).
		OrderExpr("finished_at DESC").
		Limit(ClampLimit(limit))
}

func (s *Store) Close() error {
	return s.db.Close()
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
