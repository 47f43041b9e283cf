package store

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/roach88/serdegen/internal/backend"
	"github.com/roach88/serdegen/internal/codegen"
	"github.com/roach88/serdegen/internal/format"
)

// Key derives the cache key for generating cfg from reg.
func Key(reg *format.Registry, cfg codegen.Config, opts backend.Options) (string, error) {
	cfgJSON, err := json.Marshal(cfg.WithDefaults())
	if err != nil {
		return "", errors.Wrap(err, "marshal config")
	}
	optsJSON, err := json.Marshal(opts)
	if err != nil {
		return "", errors.Wrap(err, "marshal options")
	}
	// encoding/json sorts map keys, so Comments and ExternalDefinitions
	// render deterministically.
	data := make([]byte, 0, 1024)
	data = append(data, format.CanonicalJSON(reg)...)
	data = append(data, 0)
	data = append(data, cfgJSON...)
	data = append(data, 0)
	data = append(data, optsJSON...)
	return format.HashWithDomain(DomainArtifact, data), nil
}

// Put stores art under key. Writing an existing key is a no-op.
func (s *Store) Put(ctx context.Context, key, registryHash string, art backend.Artifact) error {
	body, rawSize, err := marshalArtifact(art)
	if err != nil {
		return errors.Wrap(err, "put artifact")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO artifacts
		(key, seq, target, module, registry_hash, file_count, raw_size, body)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM artifacts), ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`,
		key,
		string(art.Target),
		art.Module,
		registryHash,
		len(art.Files),
		rawSize,
		body,
	)
	if err != nil {
		return errors.Wrap(err, "put artifact")
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE key = ?`, key); err != nil {
		return errors.Wrap(err, "delete artifact")
	}
	return nil
}

// Prune keeps the newest keep entries by seq and deletes the rest. It
// returns the number of entries removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM artifacts
		WHERE seq NOT IN (SELECT seq FROM artifacts ORDER BY seq DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, errors.Wrap(err, "prune artifacts")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "prune artifacts")
	}
	return int(n), nil
}
