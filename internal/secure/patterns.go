package secure

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Deps bundles the collaborators every secure access pattern composes:
// identity resolution, authorization, the store handle, the cache and a
// diagnostic logger. Feature modules call these patterns instead of
// touching the store directly, so authorization and sanitization always
// run before any store interaction.
type Deps struct {
	Resolver *Resolver
	Authz    *Evaluator
	DB       DB
	Cache    *Cache
	Logger   *slog.Logger
}

// QueryFunc is a caller-supplied read bound to the store handle and the
// resolved session.
type QueryFunc[T any] func(ctx context.Context, db DB, sess *VerifiedSession) (T, error)

// MutateFunc is a caller-supplied write receiving the sanitized input.
type MutateFunc[In, T any] func(ctx context.Context, db DB, sess *VerifiedSession, input In) (T, error)

// Query resolves the session, checks read permission for kind, runs the
// supplied operation and strips sensitive fields from map-shaped results.
func Query[T any](ctx context.Context, d *Deps, kind Kind, query QueryFunc[T]) (T, error) {
	var zero T
	out, err := rawQuery(ctx, d, kind, query)
	if err != nil {
		return zero, err
	}
	return stripSensitive(out), nil
}

// QueryAs is Query with a caller-supplied transformer replacing the
// default sensitive-field stripping.
func QueryAs[T, R any](ctx context.Context, d *Deps, kind Kind, query QueryFunc[T], transform func(T) R) (R, error) {
	var zero R
	out, err := rawQuery(ctx, d, kind, query)
	if err != nil {
		return zero, err
	}
	return transform(out), nil
}

func rawQuery[T any](ctx context.Context, d *Deps, kind Kind, query QueryFunc[T]) (T, error) {
	var zero T
	sess, err := d.Resolver.Resolve(ctx)
	if err != nil {
		return zero, err
	}
	if !d.Authz.CheckPermission(ctx, sess, ResourceContext{Kind: kind, Action: ActionRead}) {
		return zero, &AuthorizationError{Permission: Permission{Kind: kind, Action: ActionRead}.Key()}
	}
	out, err := query(ctx, d.DB, sess)
	if err != nil {
		d.Logger.Error("secure query failed", slog.String("kind", string(kind)), slog.Any("error", err))
		return zero, &DataAccessError{Kind: kind, Err: err}
	}
	return out, nil
}

// Mutate resolves the session, sanitizes the input, checks the requested
// action and runs the supplied write with the sanitized input.
func Mutate[In, T any](ctx context.Context, d *Deps, kind Kind, action Action, input In, mutate MutateFunc[In, T]) (T, error) {
	var zero T
	out, err := rawMutate(ctx, d, kind, action, input, mutate)
	if err != nil {
		return zero, err
	}
	return stripSensitive(out), nil
}

// MutateAs is Mutate with a caller-supplied transformer.
func MutateAs[In, T, R any](ctx context.Context, d *Deps, kind Kind, action Action, input In, mutate MutateFunc[In, T], transform func(T) R) (R, error) {
	var zero R
	out, err := rawMutate(ctx, d, kind, action, input, mutate)
	if err != nil {
		return zero, err
	}
	return transform(out), nil
}

func rawMutate[In, T any](ctx context.Context, d *Deps, kind Kind, action Action, input In, mutate MutateFunc[In, T]) (T, error) {
	var zero T
	sess, err := d.Resolver.Resolve(ctx)
	if err != nil {
		return zero, err
	}
	sanitized := SanitizeInput(input)
	if !d.Authz.CheckPermission(ctx, sess, ResourceContext{Kind: kind, Action: action}) {
		return zero, &AuthorizationError{Permission: Permission{Kind: kind, Action: action}.Key()}
	}
	out, err := mutate(ctx, d.DB, sess, sanitized)
	if err != nil {
		d.Logger.Error("secure mutation failed",
			slog.String("kind", string(kind)),
			slog.String("action", string(action)),
			slog.Any("error", err),
		)
		return zero, &DataAccessError{Kind: kind, Err: err}
	}
	return out, nil
}

// BatchItem is one read in a batch query.
type BatchItem struct {
	Kind  Kind
	Query QueryFunc[any]
}

// BatchQuery resolves the session once, checks read permission for every
// item in parallel and, only if all pass, runs every operation in
// parallel. A single denial or store failure fails the whole batch.
func BatchQuery(ctx context.Context, d *Deps, items []BatchItem) ([]any, error) {
	sess, err := d.Resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, item := range items {
		g.Go(func() error {
			if !d.Authz.CheckPermission(gctx, sess, ResourceContext{Kind: item.Kind, Action: ActionRead}) {
				return &AuthorizationError{Permission: Permission{Kind: item.Kind, Action: ActionRead}.Key()}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]any, len(items))
	g, gctx = errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			out, err := item.Query(gctx, d.DB, sess)
			if err != nil {
				d.Logger.Error("secure batch query failed", slog.String("kind", string(item.Kind)), slog.Any("error", err))
				return &DataAccessError{Kind: item.Kind, Err: err}
			}
			results[i] = stripSensitive(out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// PageResult is the envelope returned by PaginatedQuery.
type PageResult[T any] struct {
	Data       []T `json:"data"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	TotalCount int `json:"totalCount"`
}

// CountFunc counts the rows visible to the session.
type CountFunc func(ctx context.Context, db DB, sess *VerifiedSession) (int, error)

// RangeFunc fetches one page of rows visible to the session.
type RangeFunc[T any] func(ctx context.Context, db DB, sess *VerifiedSession, offset, limit int) ([]T, error)

// PaginatedQuery resolves and authorizes once, then issues the count query
// and the range-bounded data query. TotalPages is ceil(total/pageSize).
func PaginatedQuery[T any](ctx context.Context, d *Deps, kind Kind, page, pageSize int, count CountFunc, rows RangeFunc[T]) (PageResult[T], error) {
	var zero PageResult[T]
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	sess, err := d.Resolver.Resolve(ctx)
	if err != nil {
		return zero, err
	}
	if !d.Authz.CheckPermission(ctx, sess, ResourceContext{Kind: kind, Action: ActionRead}) {
		return zero, &AuthorizationError{Permission: Permission{Kind: kind, Action: ActionRead}.Key()}
	}

	total, err := count(ctx, d.DB, sess)
	if err != nil {
		d.Logger.Error("secure paginated count failed", slog.String("kind", string(kind)), slog.Any("error", err))
		return zero, &DataAccessError{Kind: kind, Err: err}
	}

	offset := (page - 1) * pageSize
	data, err := rows(ctx, d.DB, sess, offset, pageSize)
	if err != nil {
		d.Logger.Error("secure paginated query failed", slog.String("kind", string(kind)), slog.Any("error", err))
		return zero, &DataAccessError{Kind: kind, Err: err}
	}
	for i := range data {
		data[i] = stripSensitive(data[i])
	}

	return PageResult[T]{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
		TotalCount: total,
	}, nil
}

// CachedQuery wraps Query behind the keyed TTL cache. The key doubles as
// the invalidation tag for Cache.InvalidateTag. Authorization runs before
// the cache is consulted, so a cached value never leaks past a denial.
func CachedQuery[T any](ctx context.Context, d *Deps, key string, ttl time.Duration, kind Kind, query QueryFunc[T]) (T, error) {
	var zero T
	sess, err := d.Resolver.Resolve(ctx)
	if err != nil {
		return zero, err
	}
	if !d.Authz.CheckPermission(ctx, sess, ResourceContext{Kind: kind, Action: ActionRead}) {
		return zero, &AuthorizationError{Permission: Permission{Kind: kind, Action: ActionRead}.Key()}
	}

	if d.Cache != nil {
		var cached T
		hit, err := d.Cache.Get(ctx, key, &cached)
		if err != nil {
			d.Logger.Warn("secure cache read failed", slog.String("key", key), slog.Any("error", err))
		} else if hit {
			return cached, nil
		}
	}

	out, err := query(ctx, d.DB, sess)
	if err != nil {
		d.Logger.Error("secure cached query failed", slog.String("kind", string(kind)), slog.Any("error", err))
		return zero, &DataAccessError{Kind: kind, Err: err}
	}
	out = stripSensitive(out)

	if d.Cache != nil {
		if err := d.Cache.Set(ctx, key, out, ttl, key); err != nil {
			d.Logger.Warn("secure cache write failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	return out, nil
}

// TxOp is one step of a Transaction.
type TxOp struct {
	Kind   Kind
	Action Action
	Op     func(ctx context.Context, db DB, sess *VerifiedSession) (any, error)
}

// Transaction resolves the session once, checks permission for every
// operation up front, then executes the operations sequentially. This is
// permission-gated sequential execution, not an atomic transaction: there
// is no rollback, and writes that completed before a failure stay applied.
// Callers needing atomicity must run their steps inside a single operation
// using the store's own transaction support.
func Transaction(ctx context.Context, d *Deps, ops []TxOp) ([]any, error) {
	sess, err := d.Resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, op := range ops {
		g.Go(func() error {
			if !d.Authz.CheckPermission(gctx, sess, ResourceContext{Kind: op.Kind, Action: op.Action}) {
				return &AuthorizationError{Permission: Permission{Kind: op.Kind, Action: op.Action}.Key()}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]any, 0, len(ops))
	for _, op := range ops {
		out, err := op.Op(ctx, d.DB, sess)
		if err != nil {
			d.Logger.Error("secure transaction step failed",
				slog.String("kind", string(op.Kind)),
				slog.String("action", string(op.Action)),
				slog.Int("completed", len(results)),
				slog.Any("error", err),
			)
			return nil, &DataAccessError{Kind: op.Kind, Err: err}
		}
		results = append(results, stripSensitive(out))
	}
	return results, nil
}

// stripSensitive applies the secure DTO default to map-shaped results;
// typed results pass through for the caller's transformer to shape.
func stripSensitive[T any](v T) T {
	switch value := any(v).(type) {
	case map[string]any:
		return any(SecureDTO(value)).(T)
	case []map[string]any:
		out := make([]map[string]any, len(value))
		for i, item := range value {
			out[i] = SecureDTO(item)
		}
		return any(out).(T)
	default:
		return v
	}
}
