package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const selectColumns = `
	SELECT id, cache_key, schema_hash, candidate, dql,
	       filter_text, result_text, order_text, range_from, range_to,
	       filter_complete, result_complete, order_complete, range_complete,
	       compiler_version, ir_version, hits
	FROM compilations`

type scanner interface {
	Scan(dest ...any) error
}

// ReadCompilation returns the record stored under key. The boolean is
// false when no record exists.
func (s *Store) ReadCompilation(ctx context.Context, key string) (Record, bool, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE cache_key = ?`, key)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("read compilation: %w", err)
	}
	return rec, true, nil
}

// ListCompilations returns every cached record in insertion order.
// Returns an empty slice (not nil) when the cache is empty.
func (s *Store) ListCompilations(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query compilations: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan compilation: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compilations: %w", err)
	}
	return records, nil
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec                   Record
		filter, result, order sql.NullString
		rangeFrom, rangeTo    sql.NullInt64
	)
	c := &rec.Compilation
	err := row.Scan(
		&rec.ID, &rec.Key, &rec.SchemaHash, &rec.Candidate, &c.DQL,
		&filter, &result, &order, &rangeFrom, &rangeTo,
		&c.FilterComplete, &c.ResultComplete, &c.OrderComplete, &c.RangeComplete,
		&rec.CompilerVersion, &rec.IRVersion, &rec.Hits,
	)
	if err != nil {
		return Record{}, err
	}

	c.Filter = fromNullString(filter)
	c.Result = fromNullString(result)
	c.Order = fromNullString(order)
	c.RangeFrom = fromNullInt(rangeFrom)
	c.RangeTo = fromNullInt(rangeTo)
	c.Precompilable = true
	return rec, nil
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func fromNullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
