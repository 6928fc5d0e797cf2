package main

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS predictions (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		student_payload TEXT NOT NULL,
		prediction      TEXT NOT NULL,
		probability     REAL NOT NULL,
		reasons         TEXT NOT NULL,
		recommendation  TEXT NOT NULL,
		counterfactual  TEXT NOT NULL,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	// Migration: add user_id column if missing.
	var colCount int
	_ = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('predictions') WHERE name = 'user_id'`).Scan(&colCount)
	if colCount == 0 {
		_, _ = db.Exec(`ALTER TABLE predictions ADD COLUMN user_id INTEGER`)
		_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_predictions_user ON predictions(user_id)`)
	}

	return db, nil
}

// InsertPrediction appends one prediction row. Rows are never updated or
// deleted afterwards.
func InsertPrediction(db *sql.DB, features StudentFeatures, result PredictionResult, userID *int64) error {
	payloadJSON, err := json.Marshal(features.ToMap())
	if err != nil {
		return err
	}
	reasonsJSON, err := json.Marshal(result.Reasons)
	if err != nil {
		return err
	}
	cfJSON, err := json.Marshal(result.Counterfactual)
	if err != nil {
		return err
	}

	_, err = db.Exec(
		`INSERT INTO predictions (student_payload, prediction, probability, reasons, recommendation, counterfactual, user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(payloadJSON), string(result.Prediction), result.Probability,
		string(reasonsJSON), result.Recommendation, string(cfJSON), userID,
	)
	return err
}

func GetPredictionsByUser(db *sql.DB, userID int64, limit int) ([]StoredPrediction, error) {
	rows, err := db.Query(
		`SELECT id, user_id, student_payload, prediction, probability, reasons, recommendation, counterfactual, created_at
		 FROM predictions WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredPrediction
	for rows.Next() {
		var p StoredPrediction
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.StudentPayload, &p.Prediction, &p.Probability,
			&p.Reasons, &p.Recommendation, &p.Counterfactual, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountPredictionsSince returns total and at-risk counts for the digest.
// created_at is written by sqlite's CURRENT_TIMESTAMP (UTC), so the bound
// is compared in the same format.
func CountPredictionsSince(db *sql.DB, since time.Time, threshold float64) (total, atRisk int, err error) {
	err = db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN probability >= ? THEN 1 ELSE 0 END), 0)
		 FROM predictions WHERE created_at >= ?`,
		threshold, since.UTC().Format("2006-01-02 15:04:05"),
	).Scan(&total, &atRisk)
	return total, atRisk, err
}

// --- Users ---

func CreateUser(db *sql.DB, username, email, passwordHash string) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`,
		username, email, passwordHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func UserExists(db *sql.DB, username, email string) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`,
		username, email,
	).Scan(&count)
	return count > 0, err
}

// GetUserByLogin matches username exactly or email case-insensitively,
// mirroring the login form accepting either.
func GetUserByLogin(db *sql.DB, login string) (User, error) {
	var u User
	err := db.QueryRow(
		`SELECT id, username, email, password_hash, created_at
		 FROM users WHERE username = ? OR email = lower(?)`,
		login, login,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

func GetUserByID(db *sql.DB, id int64) (User, error) {
	var u User
	err := db.QueryRow(
		`SELECT id, username, email, password_hash, created_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}
