/*
 * Copyright 2025 the asuswatch authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package settings persists the paired-router connection in SQLite so a
// restart does not require re-pairing. The password is sealed before it
// touches disk; everything else is stored in the clear.
package settings

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/skirwin/asuswatch/pkg/crypto/secrets"
)

var ErrNotPaired = errors.New("settings: no paired router stored")

// Connection is the stored upstream connection. Password is plaintext in
// memory only.
type Connection struct {
	Host     string
	Port     int
	UseHTTPS bool
	Username string
	Password string
}

// Store persists the single paired connection.
type Store struct {
	db     *sql.DB
	sealer *secrets.Sealer
}

// Open opens (or creates) the settings database at path and runs
// migrations. Use ":memory:" for tests.
func Open(path string, sealer *secrets.Sealer) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("settings: open database: %w", err)
	}

	s := &Store{db: db, sealer: sealer}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("settings: migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS paired_router (
			id              INTEGER PRIMARY KEY CHECK (id = 1),
			host            TEXT NOT NULL,
			port            INTEGER NOT NULL,
			use_https       INTEGER NOT NULL,
			username        TEXT NOT NULL,
			sealed_password TEXT NOT NULL,
			paired_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)

	return err
}

// SaveConnection seals the password and upserts the single paired row.
func (s *Store) SaveConnection(conn *Connection) error {
	sealed, err := s.sealer.Seal(conn.Password)
	if err != nil {
		return fmt.Errorf("settings: seal password: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO paired_router (id, host, port, use_https, username, sealed_password)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			host = excluded.host,
			port = excluded.port,
			use_https = excluded.use_https,
			username = excluded.username,
			sealed_password = excluded.sealed_password,
			paired_at = CURRENT_TIMESTAMP
	`, conn.Host, conn.Port, boolToInt(conn.UseHTTPS), conn.Username, sealed)
	if err != nil {
		return fmt.Errorf("settings: save connection: %w", err)
	}

	return nil
}

// Connection loads the paired connection and unseals the password.
// Returns ErrNotPaired when nothing has been stored yet.
func (s *Store) Connection() (*Connection, error) {
	row := s.db.QueryRow(`
		SELECT host, port, use_https, username, sealed_password
		FROM paired_router WHERE id = 1
	`)

	var (
		conn     Connection
		useHTTPS int
		sealed   string
	)

	err := row.Scan(&conn.Host, &conn.Port, &useHTTPS, &conn.Username, &sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotPaired
	}

	if err != nil {
		return nil, fmt.Errorf("settings: load connection: %w", err)
	}

	conn.UseHTTPS = useHTTPS != 0

	conn.Password, err = s.sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("settings: unseal password: %w", err)
	}

	return &conn, nil
}

// Clear forgets the paired router.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM paired_router WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("settings: clear connection: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
