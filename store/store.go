/*
Copyright 2023 - 2026 Dima Krasner

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package store implements the repository layer on top of SQLite: actors,
// streams, follower relations, the delivery queue, custom collections, the
// public-key cache and media blobs.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the database connection shared by every repository.
type Store struct {
	DB *sql.DB
}

// Open opens (and, if necessary, creates) the SQLite database at path.
func Open(path, options string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?%s", path, options))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}
