package storage

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/platinummonkey/userdeck/pkg/observability"
	"github.com/platinummonkey/userdeck/pkg/profiles"
)

// instrumentedStore records a metric sample and a span for every call
type instrumentedStore struct {
	next    profiles.Store
	backend string
	metrics *observability.Metrics
}

// Instrument wraps store with Prometheus metrics and tracing spans.
// metrics may be nil, in which case only spans are emitted.
func Instrument(store profiles.Store, backend string, metrics *observability.Metrics) profiles.Store {
	return &instrumentedStore{next: store, backend: backend, metrics: metrics}
}

// errorType buckets store errors into a small fixed label set
func errorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, profiles.ErrNotFound):
		return "not_found"
	case errors.Is(err, profiles.ErrAlreadyExists), errors.Is(err, profiles.ErrHandleTaken):
		return "conflict"
	case errors.Is(err, profiles.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

func (s *instrumentedStore) observe(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := observability.StartSpan(ctx, "profiles."+op,
		attribute.String("db.system", s.backend),
		attribute.String("db.operation", op),
	)
	start := time.Now()
	err := fn(ctx)

	// Expected domain outcomes are not span errors
	spanErr := err
	if kind := errorType(err); kind == "not_found" || kind == "conflict" || kind == "invalid" {
		span.SetAttributes(attribute.String("profiles.outcome", kind))
		spanErr = nil
	}
	observability.EndSpan(span, spanErr)

	if s.metrics != nil {
		s.metrics.RecordStorageOperation(op, s.backend, time.Since(start), err, errorType(err))
	}
	return err
}

func (s *instrumentedStore) Create(ctx context.Context, p *profiles.Profile) error {
	return s.observe(ctx, "create", func(ctx context.Context) error {
		return s.next.Create(ctx, p)
	})
}

func (s *instrumentedStore) Get(ctx context.Context, id string) (p *profiles.Profile, err error) {
	err = s.observe(ctx, "get", func(ctx context.Context) error {
		p, err = s.next.Get(ctx, id)
		return err
	})
	return p, err
}

func (s *instrumentedStore) GetByHandle(ctx context.Context, handle string) (p *profiles.Profile, err error) {
	err = s.observe(ctx, "get_by_handle", func(ctx context.Context) error {
		p, err = s.next.GetByHandle(ctx, handle)
		return err
	})
	return p, err
}

func (s *instrumentedStore) List(ctx context.Context, q profiles.ListQuery) (result []*profiles.Profile, err error) {
	err = s.observe(ctx, "list", func(ctx context.Context) error {
		result, err = s.next.List(ctx, q)
		return err
	})
	return result, err
}

func (s *instrumentedStore) UpdateDetails(ctx context.Context, id, fullName, handle string) error {
	return s.observe(ctx, "update_details", func(ctx context.Context) error {
		return s.next.UpdateDetails(ctx, id, fullName, handle)
	})
}

func (s *instrumentedStore) SetActive(ctx context.Context, id string, active bool) error {
	return s.observe(ctx, "set_active", func(ctx context.Context) error {
		return s.next.SetActive(ctx, id, active)
	})
}

func (s *instrumentedStore) PromoteToAdmin(ctx context.Context, id string) error {
	return s.observe(ctx, "promote", func(ctx context.Context) error {
		return s.next.PromoteToAdmin(ctx, id)
	})
}

func (s *instrumentedStore) Put(ctx context.Context, p *profiles.Profile) error {
	return s.observe(ctx, "put", func(ctx context.Context) error {
		return s.next.Put(ctx, p)
	})
}

func (s *instrumentedStore) Counts(ctx context.Context) (counts profiles.Counts, err error) {
	err = s.observe(ctx, "counts", func(ctx context.Context) error {
		counts, err = s.next.Counts(ctx)
		return err
	})
	return counts, err
}

func (s *instrumentedStore) Close() error {
	return s.next.Close()
}
