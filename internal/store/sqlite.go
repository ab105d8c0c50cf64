package store

import (
	"database/sql"
	"errors"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/substringlabs/roomchat/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at the given path.
// Use ":memory:" for an in-memory database.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL
		);
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id TEXT NOT NULL,
			sender TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_room_created ON messages(room_id, created_at);
	`)
	return err
}

// CreateRoom inserts a room row. Returns ErrRoomExists if the id is taken.
func (s *SQLiteStore) CreateRoom(roomID string) error {
	_, err := s.db.Exec(
		"INSERT INTO rooms (id, created_at) VALUES (?, ?)",
		roomID, time.Now().UTC(),
	)
	if err != nil {
		if isConstraintErr(err) {
			return ErrRoomExists
		}
		return err
	}
	return nil
}

func isConstraintErr(err error) bool {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		// Primary key violations carry an extended SQLITE_CONSTRAINT code.
		return serr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

// RoomExists reports whether a room with the given id has been created.
func (s *SQLiteStore) RoomExists(roomID string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM rooms WHERE id = ?", roomID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RoomCount returns the number of created rooms.
func (s *SQLiteStore) RoomCount() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM rooms").Scan(&n)
	return n, err
}

// SaveMessage persists a message to the database.
func (s *SQLiteStore) SaveMessage(msg domain.Message) error {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.Exec(
		"INSERT INTO messages (room_id, sender, content, created_at) VALUES (?, ?, ?, ?)",
		msg.RoomID, msg.Sender, msg.Content, ts,
	)
	return err
}

// History returns the last `limit` messages for a room, oldest first.
func (s *SQLiteStore) History(roomID string, limit int) ([]domain.Message, error) {
	rows, err := s.db.Query(`
		SELECT room_id, sender, content, created_at FROM messages
		WHERE room_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.RoomID, &m.Sender, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to oldest-first order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
