// Package postgres provides the Postgres-backed lead store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hdcnetworks/leadscan/internal/leads"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// LeadStoreConfig controls the Postgres connection pool used for lead rows.
type LeadStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type poolIface interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// LeadStore writes lead rows into Postgres. Inserts are conditional on
// the id column, which carries the table's primary key; a repeated id
// is reported as a duplicate, never a second row.
//
// Expected schema:
//
//	CREATE TABLE low_voltage_leads (
//		id TEXT PRIMARY KEY,
//		url TEXT NOT NULL,
//		title TEXT NOT NULL,
//		snippet TEXT NOT NULL,
//		source TEXT NOT NULL,
//		query TEXT NOT NULL,
//		domain TEXT NOT NULL,
//		emails JSONB,
//		has_location BOOLEAN NOT NULL,
//		has_opportunity BOOLEAN NOT NULL,
//		important_domain BOOLEAN NOT NULL,
//		created_at TIMESTAMPTZ NOT NULL
//	);
type LeadStore struct {
	pool  poolIface
	table string
}

// NewLeadStore creates a Postgres-backed LeadStore using the provided config.
func NewLeadStore(ctx context.Context, cfg LeadStoreConfig) (*LeadStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "low_voltage_leads"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &LeadStore{pool: pool, table: table}, nil
}

// NewLeadStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewLeadStoreWithPool(pool poolIface, table string) (*LeadStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "low_voltage_leads"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &LeadStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *LeadStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Put conditionally inserts a lead row. It reports true when a new row
// was written and false when the id was already present.
func (s *LeadStore) Put(ctx context.Context, lead leads.Lead) (bool, error) {
	if s == nil || s.pool == nil {
		return false, fmt.Errorf("lead store is not configured")
	}
	if lead.ID == "" {
		return false, fmt.Errorf("lead id is required")
	}
	emailsJSON, err := json.Marshal(lead.Emails)
	if err != nil {
		return false, fmt.Errorf("marshal emails: %w", err)
	}

	// Table name is validated against an identifier pattern in the
	// constructors, so interpolation here is safe.
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	url,
	title,
	snippet,
	source,
	query,
	domain,
	emails,
	has_location,
	has_opportunity,
	important_domain,
	created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)
ON CONFLICT (id) DO NOTHING`, s.table)

	tag, err := s.pool.Exec(ctx, query,
		lead.ID,
		lead.URL,
		lead.Title,
		lead.Snippet,
		lead.Source,
		lead.Query,
		lead.Domain,
		emailsJSON,
		lead.HasLocation,
		lead.HasOpportunity,
		lead.ImportantDomain,
		lead.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert lead: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Get performs a point lookup by id.
func (s *LeadStore) Get(ctx context.Context, id string) (leads.Lead, bool, error) {
	if s == nil || s.pool == nil {
		return leads.Lead{}, false, fmt.Errorf("lead store is not configured")
	}
	query := fmt.Sprintf(`
SELECT id, url, title, snippet, source, query, domain, emails,
	has_location, has_opportunity, important_domain, created_at
FROM %s WHERE id = $1`, s.table)

	var (
		lead       leads.Lead
		emailsJSON []byte
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&lead.ID,
		&lead.URL,
		&lead.Title,
		&lead.Snippet,
		&lead.Source,
		&lead.Query,
		&lead.Domain,
		&emailsJSON,
		&lead.HasLocation,
		&lead.HasOpportunity,
		&lead.ImportantDomain,
		&lead.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return leads.Lead{}, false, nil
	}
	if err != nil {
		return leads.Lead{}, false, fmt.Errorf("select lead: %w", err)
	}
	if len(emailsJSON) > 0 {
		if err := json.Unmarshal(emailsJSON, &lead.Emails); err != nil {
			return leads.Lead{}, false, fmt.Errorf("unmarshal emails: %w", err)
		}
	}
	return lead, true, nil
}
