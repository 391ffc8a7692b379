package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotPrecompilable is returned when writing a compilation whose text
// embeds parameter values.
var ErrNotPrecompilable = errors.New("compilation is not precompilable")

// WriteCompilation inserts a record. Uses ON CONFLICT(cache_key) DO NOTHING
// for idempotency - a key that is already cached keeps its first record.
func (s *Store) WriteCompilation(ctx context.Context, rec Record) error {
	c := rec.Compilation
	if !c.Precompilable {
		return fmt.Errorf("write compilation %s: %w", rec.Key, ErrNotPrecompilable)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO compilations
		(id, cache_key, schema_hash, candidate, dql,
		 filter_text, result_text, order_text, range_from, range_to,
		 filter_complete, result_complete, order_complete, range_complete,
		 compiler_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO NOTHING
	`,
		rec.ID,
		rec.Key,
		rec.SchemaHash,
		rec.Candidate,
		c.DQL,
		nullString(c.Filter),
		nullString(c.Result),
		nullString(c.Order),
		nullInt(c.RangeFrom),
		nullInt(c.RangeTo),
		c.FilterComplete,
		c.ResultComplete,
		c.OrderComplete,
		c.RangeComplete,
		rec.CompilerVersion,
		rec.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write compilation: %w", err)
	}
	return nil
}

// TouchCompilation records a cache hit.
func (s *Store) TouchCompilation(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE compilations SET hits = hits + 1 WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("touch compilation: %w", err)
	}
	return nil
}

// PurgeOtherSchemas deletes records compiled against any schema other than
// schemaHash and returns how many were removed.
func (s *Store) PurgeOtherSchemas(ctx context.Context, schemaHash string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM compilations WHERE schema_hash <> ?`, schemaHash)
	if err != nil {
		return 0, fmt.Errorf("purge compilations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge compilations: %w", err)
	}
	return n, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}
