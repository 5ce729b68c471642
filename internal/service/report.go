package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/matthewbaird/waypoint/internal/apperr"
	"github.com/matthewbaird/waypoint/internal/catalog"
	"github.com/matthewbaird/waypoint/internal/conditions"
	"github.com/matthewbaird/waypoint/internal/event"
	"github.com/matthewbaird/waypoint/internal/followup"
	"github.com/matthewbaird/waypoint/internal/store"
	"github.com/matthewbaird/waypoint/internal/transition"
	"github.com/matthewbaird/waypoint/internal/types"
)

// ReportResult is the outcome of a committed report.
type ReportResult struct {
	Record  *types.StatusUpdate
	Context transition.Context
	RuleID  string
	Place   catalog.Place
	Message string
}

// SubmitReport validates and records a state report for actorID, attaching
// the primary prompt and the conditions overlay.
func (s *Service) SubmitReport(ctx context.Context, actorID string, report types.Report) (res *ReportResult, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "service.SubmitReport")
	defer func() {
		s.metrics.ObserveReport(start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if actorID == "" {
		return nil, apperr.Unauthorized("no actor on request")
	}
	if err := validateReport(report); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if report.ReportedAt.IsZero() {
		report.ReportedAt = now
	}
	if report.ReportedAt.After(now.Add(MaxClockSkew)) {
		return nil, apperr.Validation(apperr.CodeInvalidTimestamp,
			"reported_at %s is ahead of the server clock", report.ReportedAt.Format(time.RFC3339))
	}
	span.SetAttributes(
		attribute.String("actor.id", actorID),
		attribute.String("report.state", string(report.State)),
	)

	unlock := s.locks.Lock(actorID)
	defer unlock()

	place, snapshot := s.lookup(ctx, report)

	var (
		rec     *types.StatusUpdate
		tctx    transition.Context
		outcome followup.Outcome
	)
	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		head, err := tx.Head(ctx, actorID)
		if err != nil {
			return err
		}

		tctx = transition.Compute(head.Latest, report, s.thresholds)
		outcome = followup.Classify(followup.Input{
			State:      report.State,
			Context:    tctx,
			Place:      place,
			Thresholds: s.thresholds,
		})

		rec = newRecord(actorID, report, head.Latest, tctx)
		rec.Prompt = outcome.Prompt
		// A nil snapshot means the feed was unavailable; the report goes
		// out without an overlay rather than with the "clear" prompt.
		rec.Overlay = conditions.Classify(report.State, snapshot)

		return tx.Append(ctx, rec, head.Version)
	})
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			s.metrics.ConcurrencyConflictsTotal.Inc()
			return nil, apperr.Concurrency(err)
		}
		return nil, apperr.From(fmt.Errorf("recording report: %w", err))
	}

	span.SetAttributes(
		attribute.String("record.id", rec.ID),
		attribute.String("followup.rule", outcome.RuleID),
	)
	s.logger.DebugContext(ctx, "report recorded",
		"actor_id", actorID,
		"record_id", rec.ID,
		"state", rec.State,
		"prev_state", tctx.PrevState,
		"rule", outcome.RuleID,
		"overlay", rec.Overlay != nil)
	s.publisher.Publish(ctx, event.NewStatusReported(rec, outcome.RuleID, topSeverity(snapshot)))

	return &ReportResult{
		Record:  rec,
		Context: tctx,
		RuleID:  outcome.RuleID,
		Place:   place,
		Message: reportMessage(rec.State, tctx, place),
	}, nil
}

// MaxClockSkew is how far ahead of the server clock a client reported_at may be.
const MaxClockSkew = 5 * time.Minute

func validateReport(r types.Report) error {
	if _, err := types.ParseState(string(r.State)); err != nil {
		return apperr.Validation(apperr.CodeInvalidState, "%s", err.Error())
	}
	if err := r.Validate(); err != nil {
		return apperr.Validation(apperr.CodeInvalidLocation, "%s", err.Error())
	}
	return nil
}

// lookup resolves the place name and the active alerts concurrently. Each
// lookup has its own deadline; a failure or timeout leaves that enrichment
// absent.
func (s *Service) lookup(ctx context.Context, report types.Report) (catalog.Place, *conditions.Snapshot) {
	var (
		place    catalog.Place
		snapshot *conditions.Snapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lctx, cancel := context.WithTimeout(gctx, s.placeTimeout)
		defer cancel()
		p, err := s.places.Resolve(lctx, report.Coordinates)
		if err != nil {
			s.upstreamFailed(ctx, "places", err)
			return nil
		}
		place = p
		return nil
	})
	if s.feed != nil {
		g.Go(func() error {
			lctx, cancel := context.WithTimeout(gctx, s.alertTimeout)
			defer cancel()
			snap, err := s.feed.Alerts(lctx, report.Coordinates)
			if err != nil {
				s.upstreamFailed(ctx, "conditions", err)
				return nil
			}
			snapshot = snap
			return nil
		})
	}
	_ = g.Wait()
	return place, snapshot
}

// topSeverity is the severity of the most severe alert in snap. A nil
// snapshot (feed unavailable) has none.
func topSeverity(snap *conditions.Snapshot) string {
	if snap == nil {
		return ""
	}
	top, ok := conditions.MostSevere(snap.Alerts)
	if !ok {
		return ""
	}
	return string(top.Severity)
}

func (s *Service) upstreamFailed(ctx context.Context, source string, err error) {
	s.metrics.UpstreamFailure(source)
	s.logger.WarnContext(ctx, "lookup failed, continuing without it",
		"source", source, "error", apperr.Upstream(source, err))
}

func newRecord(actorID string, report types.Report, prev *types.StatusUpdate, tctx transition.Context) *types.StatusUpdate {
	rec := &types.StatusUpdate{
		ID:             uuid.NewString(),
		ActorID:        actorID,
		State:          report.State,
		Coordinates:    report.Coordinates,
		Accuracy:       report.Accuracy,
		Heading:        report.Heading,
		Speed:          report.Speed,
		ReportedAt:     report.ReportedAt,
		Source:         types.SourceUser,
		ElapsedSeconds: tctx.ElapsedSeconds,
		DistanceMiles:  tctx.DistanceMiles,
	}
	if prev != nil {
		rec.Previous = &types.Previous{
			RecordID:    prev.ID,
			State:       prev.State,
			Coordinates: prev.Coordinates,
			ReportedAt:  prev.ReportedAt,
		}
	}
	return rec
}

func reportMessage(state types.State, tctx transition.Context, place catalog.Place) string {
	msg := "Status updated to " + title(state)
	if tctx.IsFirstReport {
		msg = "You're on the map! " + title(state)
	}
	if name, ok := place.Name(); ok {
		msg += " at " + name
	}
	return msg
}

func title(s types.State) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

