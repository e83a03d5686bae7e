package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MJE43/ctf-engine-go/internal/game"
)

// SQLiteDB implements Archive on SQLite
type SQLiteDB struct {
	db *sql.DB
}

var _ Archive = (*SQLiteDB)(nil)

// NewSQLiteDB opens the database at path. ":memory:" gives a private in-memory archive.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	return &SQLiteDB{db: db}, nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the schema if it does not exist
func (s *SQLiteDB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS matches (
			id TEXT PRIMARY KEY,
			template_json TEXT NOT NULL,
			teams_json TEXT NOT NULL,
			winners_json TEXT NOT NULL,
			winners TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL,
			move_count INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMP,
			ended_at TIMESTAMP,
			recorded_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS match_moves (
			match_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			team_id TEXT NOT NULL,
			piece_id TEXT NOT NULL,
			pos_row INTEGER NOT NULL,
			pos_col INTEGER NOT NULL,
			PRIMARY KEY (match_id, seq),
			FOREIGN KEY (match_id) REFERENCES matches(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_recorded_at ON matches(recorded_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_reason ON matches(reason, recorded_at DESC)`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return tx.Commit()
}

// RecordMatch stores a finished match and its move log in one transaction.
func (s *SQLiteDB) RecordMatch(ctx context.Context, m game.MatchSummary) error {
	tmpl, err := json.Marshal(m.Template)
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}
	teams, err := json.Marshal(nonNil(m.Teams))
	if err != nil {
		return err
	}
	winners, err := json.Marshal(nonNil(m.Winners))
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO matches (
		id, template_json, teams_json, winners_json, winners, reason, move_count,
		started_at, ended_at, recorded_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, string(tmpl), string(teams), string(winners), winnerKey(m.Winners), string(m.Reason),
		len(m.Moves), nullTime(m.StartedAt), nullTime(m.EndedAt), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert match %s: %w", m.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO match_moves (match_id, seq, team_id, piece_id, pos_row, pos_col) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, mv := range m.Moves {
		if _, err := stmt.ExecContext(ctx, m.ID, i, mv.TeamID, mv.PieceID, mv.NewPosition[0], mv.NewPosition[1]); err != nil {
			return fmt.Errorf("insert move %d: %w", i, err)
		}
	}
	return tx.Commit()
}

const matchColumns = `id, template_json, teams_json, winners_json, reason, move_count, started_at, ended_at, recorded_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(row scanner) (*Match, error) {
	var (
		m                    Match
		tmpl, teams, winners string
		reason               string
		startedAt, endedAt   sql.NullTime
	)
	if err := row.Scan(&m.ID, &tmpl, &teams, &winners, &reason, &m.MoveCount, &startedAt, &endedAt, &m.RecordedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tmpl), &m.Template); err != nil {
		return nil, fmt.Errorf("decode template of %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(teams), &m.Teams); err != nil {
		return nil, fmt.Errorf("decode teams of %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(winners), &m.Winners); err != nil {
		return nil, fmt.Errorf("decode winners of %s: %w", m.ID, err)
	}
	m.Reason = game.EndReason(reason)
	if startedAt.Valid {
		m.StartedAt = startedAt.Time
	}
	if endedAt.Valid {
		m.EndedAt = endedAt.Time
	}
	return &m, nil
}

// GetMatch retrieves a match with its full move log
func (s *SQLiteDB) GetMatch(ctx context.Context, id string) (*Match, error) {
	m, err := scanMatch(s.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT team_id, piece_id, pos_row, pos_col FROM match_moves WHERE match_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m.Moves = make([]game.MoveView, 0, m.MoveCount)
	for rows.Next() {
		var mv game.MoveView
		if err := rows.Scan(&mv.TeamID, &mv.PieceID, &mv.NewPosition[0], &mv.NewPosition[1]); err != nil {
			return nil, err
		}
		m.Moves = append(m.Moves, mv)
	}
	return m, rows.Err()
}

// ListMatches retrieves matches newest first with pagination and filtering
func (s *SQLiteDB) ListMatches(ctx context.Context, query MatchesQuery) (*MatchesList, error) {
	var (
		where []string
		args  []any
	)
	if query.Winner != "" {
		where = append(where, "winners LIKE ?")
		args = append(args, "%,"+query.Winner+",%")
	}
	if query.Reason != "" {
		where = append(where, "reason = ?")
		args = append(args, query.Reason)
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var totalCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM matches "+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	if query.PerPage <= 0 {
		query.PerPage = 50
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	offset := (query.Page - 1) * query.PerPage

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches `+whereClause+` ORDER BY recorded_at DESC, id LIMIT ? OFFSET ?`,
		append(args, query.PerPage, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}

	return &MatchesList{
		Matches:    matches,
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}

// winnerKey renders winners as ",a,b," so a single name can be matched with LIKE.
func winnerKey(winners []string) string {
	if len(winners) == 0 {
		return ""
	}
	return "," + strings.Join(winners, ",") + ","
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
