package db

import (
	"database/sql"
)

// TftpConfig represents a row in the services_tftp table. At most one row is
// active at a time; the most recently inserted row wins.
type TftpConfig struct {
	ID        int64  `db:"id"`
	Directory string `db:"directory"`
	Newfiles  bool   `db:"newfiles"`
	Port      int    `db:"port"`
	Username  string `db:"username"`
	Umask     string `db:"umask"`
	Options   string `db:"options"`
}

// TftpRepository defines the interface for TFTP settings data access.
type TftpRepository interface {
	// FindLatest returns the most recently inserted TFTP configuration row,
	// or nil when the table is empty (TFTP disabled).
	FindLatest() (*TftpConfig, error)
	Create(cfg *TftpConfig) (int64, error)
}

// SQLTftpRepository implements TftpRepository against a SQL database.
type SQLTftpRepository struct {
	db *sql.DB
}

// NewTftpRepository creates a new SQL-based TFTP settings repository.
func NewTftpRepository(db *sql.DB) TftpRepository {
	return &SQLTftpRepository{db: db}
}

// FindLatest retrieves the most recent TFTP configuration row.
func (r *SQLTftpRepository) FindLatest() (*TftpConfig, error) {
	row := r.db.QueryRow(
		"SELECT id, directory, newfiles, port, username, umask, options FROM services_tftp ORDER BY id DESC LIMIT 1",
	)

	var cfg TftpConfig
	err := row.Scan(&cfg.ID, &cfg.Directory, &cfg.Newfiles, &cfg.Port, &cfg.Username, &cfg.Umask, &cfg.Options)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Create inserts a new TFTP configuration row.
func (r *SQLTftpRepository) Create(cfg *TftpConfig) (int64, error) {
	result, err := r.db.Exec(
		"INSERT INTO services_tftp (directory, newfiles, port, username, umask, options) VALUES (?, ?, ?, ?, ?, ?)",
		cfg.Directory, cfg.Newfiles, cfg.Port, cfg.Username, cfg.Umask, cfg.Options,
	)
	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}
