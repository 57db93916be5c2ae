package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/order-valuation/internal/domain/product"
)

const instrumentationName = "github.com/xenking/order-valuation/internal/catalog"

var _ product.Repository = (*Instrumented)(nil)

// Instrumented records a span per catalog call and counts how many
// requested products were found and how many were missing. Missing products
// are silently skipped by valuation, so the miss counter is the only signal
// that orders reference unknown products.
type Instrumented struct {
	next    product.Repository
	tracer  trace.Tracer
	lookups metric.Int64Counter
}

// NewInstrumented wraps next with tracing and metrics from the given providers.
func NewInstrumented(next product.Repository, tp trace.TracerProvider, mp metric.MeterProvider) (*Instrumented, error) {
	meter := mp.Meter(instrumentationName)
	lookups, err := meter.Int64Counter("catalog.lookups",
		metric.WithDescription("Product lookups by result (hit or miss)"),
		metric.WithUnit("{product}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create lookups counter")
	}

	return &Instrumented{
		next:    next,
		tracer:  tp.Tracer(instrumentationName),
		lookups: lookups,
	}, nil
}

var (
	resultHit  = metric.WithAttributes(attribute.String("result", "hit"))
	resultMiss = metric.WithAttributes(attribute.String("result", "miss"))
)

func (i *Instrumented) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	ctx, span := i.tracer.Start(ctx, "catalog.GetByID",
		trace.WithAttributes(attribute.Int64("product.id", id)),
	)
	defer span.End()

	p, err := i.next.GetByID(ctx, id)
	switch {
	case errors.Is(err, product.ErrNotFound):
		i.lookups.Add(ctx, 1, resultMiss)
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	default:
		i.lookups.Add(ctx, 1, resultHit)
	}
	return p, err
}

func (i *Instrumented) GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	ctx, span := i.tracer.Start(ctx, "catalog.GetByIDs",
		trace.WithAttributes(attribute.Int("product.requested", len(ids))),
	)
	defer span.End()

	products, err := i.next.GetByIDs(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.found", len(products)))
	i.lookups.Add(ctx, int64(len(products)), resultHit)
	if misses := len(ids) - len(products); misses > 0 {
		i.lookups.Add(ctx, int64(misses), resultMiss)
	}
	return products, nil
}
