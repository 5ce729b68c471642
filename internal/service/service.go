// Package service orchestrates state reports and prompt answers: it computes
// the transition context, runs the classifiers, and persists the resulting
// record and state mirror in one transaction.
package service

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/matthewbaird/waypoint/internal/conditions"
	"github.com/matthewbaird/waypoint/internal/event"
	"github.com/matthewbaird/waypoint/internal/metrics"
	"github.com/matthewbaird/waypoint/internal/places"
	"github.com/matthewbaird/waypoint/internal/policy"
	"github.com/matthewbaird/waypoint/internal/store"
)

const tracerName = "github.com/matthewbaird/waypoint/internal/service"

// Default lookup timeouts.
const (
	DefaultPlaceTimeout = 500 * time.Millisecond
	DefaultAlertTimeout = 2 * time.Second
)

// Service is the status-transition service.
type Service struct {
	store      store.Store
	places     places.Resolver
	feed       conditions.Feed
	thresholds policy.Thresholds
	publisher  event.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time

	placeTimeout time.Duration
	alertTimeout time.Duration

	locks *keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithPlaces sets the place-name resolver.
func WithPlaces(r places.Resolver) Option { return func(s *Service) { s.places = r } }

// WithFeed sets the conditions feed. Without one no overlay is attached.
func WithFeed(f conditions.Feed) Option { return func(s *Service) { s.feed = f } }

// WithThresholds overrides the default classification thresholds.
func WithThresholds(t policy.Thresholds) Option { return func(s *Service) { s.thresholds = t } }

// WithPublisher sets where committed events go.
func WithPublisher(p event.Publisher) Option { return func(s *Service) { s.publisher = p } }

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithTracer sets the tracer. The global provider's tracer is used otherwise.
func WithTracer(t trace.Tracer) Option { return func(s *Service) { s.tracer = t } }

// WithClock sets the time source.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithTimeouts bounds the place and alert lookups.
func WithTimeouts(place, alert time.Duration) Option {
	return func(s *Service) {
		if place > 0 {
			s.placeTimeout = place
		}
		if alert > 0 {
			s.alertTimeout = alert
		}
	}
}

// New creates a Service over st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:        st,
		places:       places.Static{},
		thresholds:   policy.Default(),
		publisher:    event.Nop{},
		logger:       slog.Default(),
		now:          time.Now,
		placeTimeout: DefaultPlaceTimeout,
		alertTimeout: DefaultAlertTimeout,
		locks:        newKeyedMutex(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}
