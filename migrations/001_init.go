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

package migrations

import (
	"context"
	"database/sql"
)

func initSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	statements := []string{
		`CREATE TABLE persons(
			id STRING NOT NULL PRIMARY KEY,
			username STRING NOT NULL,
			actor STRING NOT NULL,
			privkey STRING NOT NULL,
			inserted INTEGER NOT NULL DEFAULT (UNIXEPOCH())
		)`,
		`CREATE UNIQUE INDEX personsusername ON persons(username)`,

		`CREATE TABLE streams(
			username STRING NOT NULL,
			stream STRING NOT NULL,
			activityid STRING NOT NULL,
			activity STRING NOT NULL,
			inserted INTEGER NOT NULL DEFAULT (UNIXEPOCH())
		)`,
		`CREATE UNIQUE INDEX streamsuniq ON streams(username, stream, activityid)`,
		`CREATE INDEX streamsorder ON streams(username, stream, inserted)`,

		`CREATE TABLE follows(
			username STRING NOT NULL,
			remoteactorid STRING NOT NULL,
			direction STRING NOT NULL,
			inserted INTEGER NOT NULL DEFAULT (UNIXEPOCH())
		)`,
		`CREATE UNIQUE INDEX followsuniq ON follows(username, remoteactorid, direction)`,

		`CREATE TABLE deliveryqueue(
			id STRING NOT NULL PRIMARY KEY,
			activity STRING NOT NULL,
			targetinbox STRING NOT NULL,
			senderactorid STRING NOT NULL,
			senderusername STRING NOT NULL,
			status STRING NOT NULL DEFAULT 'PENDING',
			attempts INTEGER NOT NULL DEFAULT 0,
			maxattempts INTEGER NOT NULL DEFAULT 5,
			created INTEGER NOT NULL DEFAULT (UNIXEPOCH()),
			nextattempt INTEGER NOT NULL DEFAULT (UNIXEPOCH()),
			lease INTEGER NOT NULL DEFAULT 0,
			lasterror STRING
		)`,
		`CREATE INDEX deliveryqueueclaim ON deliveryqueue(status, nextattempt)`,
		`CREATE INDEX deliveryqueuecleanup ON deliveryqueue(status, created)`,

		`CREATE TABLE collections(
			username STRING NOT NULL,
			id STRING NOT NULL,
			name STRING NOT NULL,
			description STRING NOT NULL DEFAULT '',
			type STRING NOT NULL,
			visibility STRING NOT NULL,
			sortorder STRING NOT NULL DEFAULT 'REVERSE_CHRONO',
			maxitems INTEGER,
			items STRING,
			queryfilter STRING,
			inserted INTEGER NOT NULL DEFAULT (UNIXEPOCH())
		)`,
		`CREATE UNIQUE INDEX collectionsuniq ON collections(username, id)`,

		`CREATE TABLE keycache(
			keyid STRING NOT NULL PRIMARY KEY,
			pem STRING NOT NULL,
			expires INTEGER NOT NULL
		)`,

		`CREATE TABLE blobs(
			username STRING NOT NULL,
			id STRING NOT NULL,
			contenttype STRING NOT NULL,
			data BLOB NOT NULL,
			inserted INTEGER NOT NULL DEFAULT (UNIXEPOCH())
		)`,
		`CREATE UNIQUE INDEX blobsuniq ON blobs(username, id)`,
	}

	for _, s := range statements {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return err
		}
	}

	return tx.Commit()
}
