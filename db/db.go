package db

import (
	"context"
	"database/sql"
	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mid0o/minesweeper/players"
)

//go:embed schema.sql
var ddl string

// TopScoreLimit caps how many entries a leaderboard query returns.
const TopScoreLimit = 5

type Score struct {
	Player  string
	Seconds uint32
	Date    string
}

type SQLStore struct {
	DB  *sql.DB
	ctx context.Context
}

func InitializeTables(db *sql.DB) error {
	_, err := db.Exec(ddl)
	return err
}

func (s *SQLStore) InitializeTables() error {
	return InitializeTables(s.DB)
}

func InitStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// Need to ping the database to check if the file could be opened
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return &SQLStore{DB: db, ctx: context.Background()}, nil
}

func (s *SQLStore) CreatePlayer(name, hash string) error {
	_, err := s.DB.ExecContext(s.ctx,
		"INSERT INTO players (username, password_hash) VALUES (?, ?)",
		name, hash)
	return err
}

func (s *SQLStore) FindPlayerByName(name string) (*players.Player, error) {
	row := s.DB.QueryRowContext(s.ctx,
		"SELECT id, username, password_hash FROM players WHERE username = ?",
		name)
	var p players.Player
	if err := row.Scan(&p.ID, &p.Name, &p.PasswordHash); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLStore) RecordScore(playerID uint32, difficulty string, seconds uint32) error {
	_, err := s.DB.ExecContext(s.ctx,
		"INSERT INTO scores (player_id, difficulty, seconds) VALUES (?, ?, ?)",
		playerID, difficulty, seconds)
	return err
}

// TopScores returns the fastest wins for a difficulty, best first.
func (s *SQLStore) TopScores(difficulty string) ([]Score, error) {
	rows, err := s.DB.QueryContext(s.ctx,
		`SELECT p.username, sc.seconds, date(sc.played_at)
		 FROM scores sc JOIN players p ON p.id = sc.player_id
		 WHERE sc.difficulty = ?
		 ORDER BY sc.seconds ASC, sc.played_at ASC
		 LIMIT ?`,
		difficulty, TopScoreLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var scores []Score
	for rows.Next() {
		var score Score
		if err := rows.Scan(&score.Player, &score.Seconds, &score.Date); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}
