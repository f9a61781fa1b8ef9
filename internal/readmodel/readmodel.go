// Package readmodel maintains a best-effort, denormalized SQL mirror of
// node id/summary/tags/status for text search fallback when the vector
// backend is unavailable. It is never authoritative: the journal and
// graph snapshot remain the source of truth, so a missing or corrupt
// mirror is rebuilt wholesale from the current snapshot rather than
// recovered from its own history.
package readmodel

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/gotn-ai/gotn/internal/gotnerr"
	"github.com/gotn-ai/gotn/internal/model"
)

// Mirror is the SQL-backed read model.
type Mirror struct {
	db     *sql.DB
	driver string
}

// Open opens a sqlite file (driver "sqlite") when databaseURL is empty, or
// a postgres connection (driver "postgres") when databaseURL is set,
// following store/ledger's dual-backend-behind-one-interface split.
func Open(databaseURL, sqlitePath string) (*Mirror, error) {
	driver := "sqlite"
	dsn := sqlitePath
	if databaseURL != "" {
		driver = "postgres"
		dsn = databaseURL
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, gotnerr.Wrap(gotnerr.KindBackendUnavail, "open readmodel db", err)
	}
	m := &Mirror{db: db, driver: driver}
	if err := m.migrate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mirror) migrate() error {
	_, err := m.db.Exec(`
CREATE TABLE IF NOT EXISTS node_mirror (
	project_id TEXT NOT NULL,
	id TEXT NOT NULL,
	summary TEXT NOT NULL,
	tags TEXT NOT NULL,
	status TEXT NOT NULL,
	PRIMARY KEY (project_id, id)
)`)
	if err != nil {
		return gotnerr.Wrap(gotnerr.KindInternal, "migrate readmodel", err)
	}
	return nil
}

// Upsert reflects a node write into the mirror.
func (m *Mirror) Upsert(ctx context.Context, n *model.Node) error {
	tags := strings.Join(n.Tags, ",")
	q := m.placeholder(`
INSERT INTO node_mirror (project_id, id, summary, tags, status)
VALUES (%s, %s, %s, %s, %s)
ON CONFLICT (project_id, id) DO UPDATE SET summary = excluded.summary, tags = excluded.tags, status = excluded.status`)
	_, err := m.db.ExecContext(ctx, q, n.ProjectID, n.ID, n.Summary, tags, string(n.Status))
	if err != nil {
		return gotnerr.Wrap(gotnerr.KindBackendUnavail, "readmodel upsert", err)
	}
	return nil
}

// Search performs a LIKE-based fallback text search, used by search_nodes
// when the vector backend returns VectorBackendUnavailable.
func (m *Mirror) Search(ctx context.Context, projectID, query string, limit int) ([]string, error) {
	q := m.placeholder(`SELECT id FROM node_mirror WHERE project_id = %s AND (summary LIKE %s OR tags LIKE %s) LIMIT %s`)
	like := "%" + query + "%"
	rows, err := m.db.QueryContext(ctx, q, projectID, like, like, limit)
	if err != nil {
		return nil, gotnerr.Wrap(gotnerr.KindBackendUnavail, "readmodel search", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Rebuild truncates and repopulates the mirror from a full snapshot.
func (m *Mirror) Rebuild(ctx context.Context, nodes []*model.Node) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM node_mirror`); err != nil {
		return gotnerr.Wrap(gotnerr.KindInternal, "readmodel truncate", err)
	}
	for _, n := range nodes {
		if err := m.Upsert(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// placeholder rewrites %s placeholders as $1, $2, ... for postgres, or
// leaves them as ? for sqlite, since lib/pq and modernc.org/sqlite use
// different bind-parameter syntaxes.
func (m *Mirror) placeholder(q string) string {
	if m.driver != "postgres" {
		return strings.ReplaceAll(q, "%s", "?")
	}
	n := 0
	for strings.Contains(q, "%s") {
		n++
		q = strings.Replace(q, "%s", fmt.Sprintf("$%d", n), 1)
	}
	return q
}

// Close releases the underlying connection pool.
func (m *Mirror) Close() error { return m.db.Close() }
