package store

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/roach88/serdegen/internal/backend"
)

// Get returns the artifact stored under key. The boolean is false on a
// miss. A hit increments the entry's hit counter.
func (s *Store) Get(ctx context.Context, key string) (backend.Artifact, bool, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM artifacts WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return backend.Artifact{}, false, nil
	}
	if err != nil {
		return backend.Artifact{}, false, errors.Wrap(err, "get artifact")
	}
	art, err := unmarshalArtifact(body)
	if err != nil {
		return backend.Artifact{}, false, errors.Wrapf(err, "get artifact %s", key)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE artifacts SET hits = hits + 1 WHERE key = ?`, key); err != nil {
		return backend.Artifact{}, false, errors.Wrap(err, "record hit")
	}
	return art, true, nil
}

// Entry is the metadata of one cached artifact.
type Entry struct {
	Key          string `json:"key"`
	Seq          int64  `json:"seq"`
	Target       string `json:"target"`
	Module       string `json:"module"`
	RegistryHash string `json:"registry_hash"`
	FileCount    int    `json:"file_count"`
	RawSize      int    `json:"raw_size"`
	StoredSize   int    `json:"stored_size"`
	Hits         int    `json:"hits"`
}

// List returns every entry ordered by seq, then key.
//
// Returns an empty slice (not nil) for an empty cache.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, seq, target, module, registry_hash, file_count, raw_size, LENGTH(body), hits
		FROM artifacts
		ORDER BY seq ASC, key COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query artifacts")
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Seq, &e.Target, &e.Module, &e.RegistryHash, &e.FileCount, &e.RawSize, &e.StoredSize, &e.Hits); err != nil {
			return nil, errors.Wrap(err, "scan artifact")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate artifacts")
	}
	return entries, nil
}
