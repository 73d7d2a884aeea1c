// Package directory resolves customer-billable interfaces from an
// Observium database and groups them by customer.
package directory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"burstbill/internal/domain"
)

type Logger interface {
	Warnf(string, ...any)
}

type Config struct {
	DSN         string
	RRDBase     string
	AliasPrefix string // default "Cust:"
}

// Store reads the port/device inventory. The underlying connection is
// read-only as far as this package is concerned.
type Store struct {
	db  *sql.DB
	log Logger
	cfg Config

	fileExists func(string) bool
}

// New wraps an existing connection, mainly for tests.
func New(db *sql.DB, cfg Config, log Logger) *Store {
	if cfg.AliasPrefix == "" {
		cfg.AliasPrefix = "Cust:"
	}
	return &Store{db: db, log: log, cfg: cfg, fileExists: fileExists}
}

// Open connects to the Observium database using the mysql driver.
func Open(ctx context.Context, cfg Config, log Logger) (*Store, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return New(db, cfg, log), nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping validates connectivity, for readiness checks.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Billable ports carry an alias like "Cust: Acme". The LIKE match relies
// on MySQL's case-insensitive default collation; the prefix is re-checked
// in Go when stripping. ORDER BY keeps discovery order stable across runs.
const interfacesQuery = `
SELECT p.ifIndex, p.ifAlias, d.hostname
FROM ports AS p
JOIN devices AS d ON p.device_id = d.device_id
WHERE p.ifAlias LIKE ?
ORDER BY d.hostname, p.ifIndex`

// CustomerGroups returns billable interfaces grouped by customer name in
// first-seen order. Rows whose RRD file does not exist are dropped with a
// warning and join no group, so a customer with no files at all yields no
// group rather than an empty one.
func (s *Store) CustomerGroups(ctx context.Context) ([]domain.CustomerGroup, error) {
	rows, err := s.db.QueryContext(ctx, interfacesQuery, s.cfg.AliasPrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("query billable ports: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	var groups []domain.CustomerGroup
	for rows.Next() {
		var (
			ifIndex  int64
			alias    string
			hostname string
		)
		if err := rows.Scan(&ifIndex, &alias, &hostname); err != nil {
			return nil, fmt.Errorf("scan port row: %w", err)
		}
		customer, ok := customerFromAlias(alias, s.cfg.AliasPrefix)
		if !ok {
			continue
		}
		ref := filepath.Join(s.cfg.RRDBase, hostname, fmt.Sprintf("port-%d.rrd", ifIndex))
		if !s.fileExists(ref) {
			s.log.Warnf("no RRD file for interface %q: %s", alias, ref)
			continue
		}

		gi, ok := index[customer]
		if !ok {
			gi = len(groups)
			index[customer] = gi
			groups = append(groups, domain.CustomerGroup{Customer: customer})
		}
		groups[gi].Interfaces = append(groups[gi].Interfaces, domain.Interface{
			IfIndex:   ifIndex,
			Hostname:  hostname,
			Alias:     alias,
			Customer:  customer,
			SeriesRef: ref,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read port rows: %w", err)
	}
	return groups, nil
}

// customerFromAlias strips the billing prefix from an interface alias,
// case-insensitively. An alias with nothing after the prefix maps to
// "Unknown".
func customerFromAlias(alias, prefix string) (string, bool) {
	if len(alias) < len(prefix) || !strings.EqualFold(alias[:len(prefix)], prefix) {
		return "", false
	}
	customer := strings.TrimSpace(alias[len(prefix):])
	if customer == "" {
		customer = "Unknown"
	}
	return customer, true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
