package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ayusman/repcoach/internal/report"
)

// TraceRepository stores the per-frame series of a session.
type TraceRepository struct {
	db *sql.DB
}

// Traces returns the trace repository for this store.
func (s *Store) Traces() *TraceRepository {
	return &TraceRepository{db: s.db}
}

// Save stores every series of a session in a single transaction, replacing
// any previous trace.
func (r *TraceRepository) Save(sessionID string, series []report.Series) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM session_traces WHERE session_id = ?`, sessionID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO session_traces (session_id, series_index, name, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, s := range series {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode series %q: %w", s.Name, err)
		}
		if _, err := stmt.Exec(sessionID, i, s.Name, string(data)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Get retrieves the series of a session in their original order.
func (r *TraceRepository) Get(sessionID string) ([]report.Series, error) {
	rows, err := r.db.Query(
		`SELECT data FROM session_traces
		 WHERE session_id = ?
		 ORDER BY series_index`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []report.Series
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var s report.Series
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			return nil, fmt.Errorf("decode series: %w", err)
		}
		series = append(series, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return series, nil
}
