package translate

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/roach88/dqlmap/internal/ir"
	"github.com/roach88/dqlmap/internal/querydql"
	"github.com/roach88/dqlmap/internal/queryexpr"
	"github.com/roach88/dqlmap/internal/store"
)

// DefaultCacheSize is the number of compilations kept in memory.
const DefaultCacheSize = 5000

// Source tells where a translation came from.
type Source string

const (
	SourceCompiled Source = "compiled"
	SourceMemory   Source = "memory"
	SourceStore    Source = "store"
)

// Result is one translated query.
type Result struct {
	ID          string
	Key         string
	Source      Source
	Compilation querydql.Compilation
}

type cached struct {
	id          string
	compilation querydql.Compilation
}

// Option configures a Translator.
type Option func(*Translator)

// WithStore persists precompilable compilations in s.
func WithStore(s *store.Store) Option {
	return func(t *Translator) { t.store = s }
}

// WithCacheSize sets the in-memory cache capacity.
func WithCacheSize(n int) Option {
	return func(t *Translator) { t.cacheSize = n }
}

// WithIDGenerator replaces the UUIDv7 compilation ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(t *Translator) {
		if g != nil {
			t.ids = g
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Translator) {
		if l != nil {
			t.log = l
		}
	}
}

// Translator compiles queries and caches the reusable results.
// It is safe for concurrent use while the schema registry is not being
// modified.
type Translator struct {
	compiler  *querydql.Compiler
	store     *store.Store
	cache     *lru.TwoQueueCache[string, cached]
	cacheSize int
	ids       IDGenerator
	log       *zap.Logger
}

// New creates a translator. When a store is configured, entries compiled
// against other schemas are purged from it.
func New(ctx context.Context, compiler *querydql.Compiler, opts ...Option) (*Translator, error) {
	t := &Translator{
		compiler:  compiler,
		cacheSize: DefaultCacheSize,
		ids:       UUIDv7Generator{},
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	var err error
	if t.cache, err = lru.New2Q[string, cached](t.cacheSize); err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	hash, err := t.SchemaHash()
	if err != nil {
		return nil, err
	}

	if t.store != nil {
		n, err := t.store.PurgeOtherSchemas(ctx, hash)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			t.log.Info("purged stale compilations", zap.Int64("count", n), zap.String("schema", hash))
		}
	}
	return t, nil
}

// SchemaHash returns the current fingerprint of the compiler's schema,
// registered converters included. It is recomputed on every call so that
// registry changes made after New never serve stale entries.
func (t *Translator) SchemaHash() (string, error) {
	hash, err := t.compiler.Registry().Fingerprint()
	if err != nil {
		return "", fmt.Errorf("fingerprint schema: %w", err)
	}
	return hash, nil
}

// Key returns the cache key of q.
func (t *Translator) Key(q queryexpr.Query) (string, error) {
	key, _, err := t.key(q)
	return key, err
}

func (t *Translator) key(q queryexpr.Query) (key, schemaHash string, err error) {
	canon, err := queryexpr.Canonical(q)
	if err != nil {
		return "", "", fmt.Errorf("canonical query: %w", err)
	}
	if schemaHash, err = t.SchemaHash(); err != nil {
		return "", "", err
	}
	key, err = ir.CompilationKey(canon, schemaHash)
	return key, schemaHash, err
}

// Translate returns the DQL compilation of q, from cache when possible.
// Hard compile failures are returned unchanged and never cached.
func (t *Translator) Translate(ctx context.Context, q queryexpr.Query, params queryexpr.Params) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, schemaHash, err := t.key(q)
	if err != nil {
		return nil, err
	}

	if hit, ok := t.cache.Get(key); ok {
		t.log.Debug("compilation cache hit", zap.String("key", key), zap.String("source", string(SourceMemory)))
		return &Result{ID: hit.id, Key: key, Source: SourceMemory, Compilation: hit.compilation.Clone()}, nil
	}

	if t.store != nil {
		rec, ok, err := t.store.ReadCompilation(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := t.store.TouchCompilation(ctx, key); err != nil {
				return nil, err
			}
			t.cache.Add(key, cached{id: rec.ID, compilation: rec.Compilation.Clone()})
			t.log.Debug("compilation cache hit", zap.String("key", key), zap.String("source", string(SourceStore)))
			return &Result{ID: rec.ID, Key: key, Source: SourceStore, Compilation: rec.Compilation}, nil
		}
	}

	out, err := t.compiler.Compile(q, params)
	if err != nil {
		return nil, err
	}

	res := &Result{ID: t.ids.Generate(), Key: key, Source: SourceCompiled, Compilation: *out}
	if !out.Precompilable {
		return res, nil
	}

	t.cache.Add(key, cached{id: res.ID, compilation: out.Clone()})
	if t.store != nil {
		err := t.store.WriteCompilation(ctx, store.Record{
			ID:              res.ID,
			Key:             key,
			SchemaHash:      schemaHash,
			Candidate:       q.Candidate,
			Compilation:     *out,
			CompilerVersion: ir.CompilerVersion,
			IRVersion:       ir.IRVersion,
		})
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}
