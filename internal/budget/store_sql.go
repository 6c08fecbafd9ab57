// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package budget

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/agentcore/core/internal/model"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const createBudgetUsageTableSQL = `
CREATE TABLE IF NOT EXISTS agent_budget_usage (
    agent_id   VARCHAR(255) NOT NULL,
    dimension  VARCHAR(50)  NOT NULL,
    window     VARCHAR(50)  NOT NULL,
    amount     DOUBLE PRECISION NOT NULL DEFAULT 0,
    window_end TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (agent_id, dimension, window)
);
`

const createBudgetCallsTableSQL = `
CREATE TABLE IF NOT EXISTS agent_budget_calls (
    agent_id  VARCHAR(255) NOT NULL,
    called_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_agent_budget_calls_agent ON agent_budget_calls(agent_id, called_at);
`

// SQLStore is a database/sql-backed Store, supporting postgres, mysql,
// and sqlite3 dialects (RATE_LIMIT_BACKEND=sql). It generalizes the
// teacher's rate-limit SQLStore from one-table session throttling to two
// tables: per-dimension budget counters and a raw call-timestamp log for
// the sliding-window rate limiter.
type SQLStore struct {
	db      *sql.DB
	dialect string // "postgres" | "mysql" | "sqlite3"
}

// NewSQLStore opens a SQL-backed store over an existing *sql.DB and
// ensures its schema exists.
func NewSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("budget: database connection is required")
	}
	switch dialect {
	case "postgres", "mysql", "sqlite3":
	default:
		return nil, fmt.Errorf("budget: unsupported dialect %q (supported: postgres, mysql, sqlite3)", dialect)
	}

	s := &SQLStore{db: db, dialect: dialect}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("budget: failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, createBudgetUsageTableSQL); err != nil {
		return fmt.Errorf("creating agent_budget_usage: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, createBudgetCallsTableSQL); err != nil {
		return fmt.Errorf("creating agent_budget_calls: %w", err)
	}
	return nil
}

func (s *SQLStore) placeholder(n int) string {
	if s.dialect == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLStore) GetUsage(ctx context.Context, agentID string, dim model.BudgetDimension, window model.BudgetWindow) (float64, time.Time, error) {
	query := fmt.Sprintf(
		"SELECT amount, window_end FROM agent_budget_usage WHERE agent_id = %s AND dimension = %s AND window = %s",
		s.placeholder(1), s.placeholder(2), s.placeholder(3),
	)

	var amount float64
	var windowEnd time.Time
	err := s.db.QueryRowContext(ctx, query, agentID, string(dim), string(window)).Scan(&amount, &windowEnd)
	now := time.Now()
	if err == sql.ErrNoRows {
		return 0, now.Add(window.Duration()), nil
	}
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("budget: query usage: %w", err)
	}
	if window != model.WindowTotal && windowEnd.Before(now) {
		return 0, now.Add(window.Duration()), nil
	}
	return amount, windowEnd, nil
}

func (s *SQLStore) IncrementUsage(ctx context.Context, agentID string, dim model.BudgetDimension, window model.BudgetWindow, amount float64) error {
	current, windowEnd, err := s.GetUsage(ctx, agentID, dim, window)
	if err != nil {
		return err
	}
	now := time.Now()
	if window != model.WindowTotal && windowEnd.Before(now) {
		windowEnd = now.Add(window.Duration())
		current = 0
	}
	newAmount := current + amount

	var upsert string
	switch s.dialect {
	case "postgres":
		upsert = `
			INSERT INTO agent_budget_usage (agent_id, dimension, window, amount, window_end, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (agent_id, dimension, window)
			DO UPDATE SET amount = EXCLUDED.amount, window_end = EXCLUDED.window_end, updated_at = EXCLUDED.updated_at
		`
	case "mysql":
		upsert = `
			INSERT INTO agent_budget_usage (agent_id, dimension, window, amount, window_end, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE amount = VALUES(amount), window_end = VALUES(window_end), updated_at = VALUES(updated_at)
		`
	default: // sqlite3
		upsert = `
			INSERT OR REPLACE INTO agent_budget_usage (agent_id, dimension, window, amount, window_end, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`
	}

	_, err = s.db.ExecContext(ctx, upsert, agentID, string(dim), string(window), newAmount, windowEnd, now)
	if err != nil {
		return fmt.Errorf("budget: increment usage: %w", err)
	}
	return nil
}

func (s *SQLStore) GetCallWindow(ctx context.Context, agentID string, period time.Duration) ([]time.Time, error) {
	cutoff := time.Now().Add(-period)
	query := fmt.Sprintf(
		"SELECT called_at FROM agent_budget_calls WHERE agent_id = %s AND called_at > %s ORDER BY called_at",
		s.placeholder(1), s.placeholder(2),
	)

	rows, err := s.db.QueryContext(ctx, query, agentID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("budget: query call window: %w", err)
	}
	defer rows.Close()

	var calls []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("budget: scan call window: %w", err)
		}
		calls = append(calls, t)
	}
	return calls, rows.Err()
}

func (s *SQLStore) RecordCall(ctx context.Context, agentID string, at time.Time) error {
	query := fmt.Sprintf("INSERT INTO agent_budget_calls (agent_id, called_at) VALUES (%s, %s)", s.placeholder(1), s.placeholder(2))
	_, err := s.db.ExecContext(ctx, query, agentID, at)
	if err != nil {
		return fmt.Errorf("budget: record call: %w", err)
	}
	return nil
}

func (s *SQLStore) Reset(ctx context.Context, agentID string) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM agent_budget_usage WHERE agent_id = %s", s.placeholder(1)), agentID); err != nil {
		return fmt.Errorf("budget: reset usage: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM agent_budget_calls WHERE agent_id = %s", s.placeholder(1)), agentID); err != nil {
		return fmt.Errorf("budget: reset calls: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

var _ Store = (*SQLStore)(nil)
