package store

import (
	"database/sql"
	"fmt"

	"github.com/ayusman/repcoach/internal/stats"
)

// StatKind tells angle extrema from distance extrema.
type StatKind string

const (
	StatAngle    StatKind = "angle"
	StatDistance StatKind = "distance"
)

// StatRepository stores the final extrema of a session.
type StatRepository struct {
	db *sql.DB
}

// Stats returns the statistics repository for this store.
func (s *Store) Stats() *StatRepository {
	return &StatRepository{db: s.db}
}

// Save replaces the statistics of kind for a session in a single
// transaction.
func (r *StatRepository) Save(sessionID string, kind StatKind, st stats.Statistics) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM session_stats WHERE session_id = ? AND kind = ?`, sessionID, string(kind)); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO session_stats (session_id, kind, name, max_value, min_value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for name, e := range st {
		if _, err := stmt.Exec(sessionID, string(kind), name, e.Max, e.Min); err != nil {
			return fmt.Errorf("save %s %s: %w", kind, name, err)
		}
	}

	return tx.Commit()
}

// Get returns the statistics of kind for a session. A session without
// statistics yields an empty map.
func (r *StatRepository) Get(sessionID string, kind StatKind) (stats.Statistics, error) {
	rows, err := r.db.Query(
		`SELECT name, max_value, min_value FROM session_stats
		 WHERE session_id = ? AND kind = ?
		 ORDER BY name`,
		sessionID, string(kind),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	st := make(stats.Statistics)
	for rows.Next() {
		var name string
		var e stats.Extrema
		if err := rows.Scan(&name, &e.Max, &e.Min); err != nil {
			return nil, err
		}
		st[name] = e
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return st, nil
}
