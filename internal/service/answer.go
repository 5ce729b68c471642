package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/matthewbaird/waypoint/internal/apperr"
	"github.com/matthewbaird/waypoint/internal/correction"
	"github.com/matthewbaird/waypoint/internal/event"
	"github.com/matthewbaird/waypoint/internal/store"
	"github.com/matthewbaird/waypoint/internal/types"
)

// AnswerRequest is an answer to one prompt on a record. An empty Category
// addresses the primary prompt.
type AnswerRequest struct {
	RecordID string
	Category types.Category
	Value    string
	Text     *string
}

// AnswerResult is the outcome of a recorded answer.
type AnswerResult struct {
	RecordID   string
	Slot       types.PromptSlot
	Corrected  bool
	NewState   types.State
	Correction *types.StatusUpdate
	Message    string
}

// SubmitAnswer records an answer and, for a "still waiting" answer to the
// rest-entry question, rewinds the actor to waiting in the same transaction.
func (s *Service) SubmitAnswer(ctx context.Context, actorID string, req AnswerRequest) (res *AnswerResult, err error) {
	ctx, span := s.tracer.Start(ctx, "service.SubmitAnswer")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if actorID == "" {
		return nil, apperr.Unauthorized("no actor on request")
	}
	if req.RecordID == "" {
		return nil, apperr.Validation(apperr.CodeInvalidBody, "status_update_id is required")
	}
	if req.Value == "" {
		return nil, apperr.Validation(apperr.CodeInvalidAnswer, "response_value is required")
	}
	span.SetAttributes(
		attribute.String("actor.id", actorID),
		attribute.String("record.id", req.RecordID),
	)

	unlock := s.locks.Lock(actorID)
	defer unlock()

	now := s.now().UTC()
	var (
		rec      *types.StatusUpdate
		slot     types.PromptSlot
		category types.Category
		ans      types.Answer
		fix      *types.StatusUpdate
	)
	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		rec, err = tx.Get(ctx, req.RecordID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && rec.ActorID != actorID) {
			return apperr.NotFound("status update %s not found", req.RecordID)
		}
		if err != nil {
			return err
		}

		var ok bool
		slot, ok = rec.SlotFor(req.Category)
		if !ok {
			return apperr.Validation(apperr.CodeNoPrompt, "status update has no %s prompt", req.Category)
		}
		prompt, existing := rec.PromptFor(slot)
		if prompt == nil {
			return apperr.Validation(apperr.CodeNoPrompt, "status update has no follow-up question")
		}
		if existing != nil {
			return apperr.Conflict(apperr.CodeAlreadyAnswered, "%s has already been answered", prompt.Category)
		}
		if !prompt.Accepts(req.Value) {
			return apperr.Validation(apperr.CodeInvalidAnswer, "%q is not an option for %s", req.Value, prompt.Category)
		}
		category = prompt.Category

		ans = types.Answer{Value: req.Value, Text: req.Text, AnsweredAt: now}
		if err := tx.SetAnswer(ctx, rec.ID, slot, ans); err != nil {
			if errors.Is(err, store.ErrAlreadyAnswered) {
				return apperr.Conflict(apperr.CodeAlreadyAnswered, "%s has already been answered", category)
			}
			return err
		}

		if !correction.Applies(slot, category, req.Value) {
			return nil
		}
		fix, err = s.correct(ctx, tx, rec, now)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			s.metrics.ConcurrencyConflictsTotal.Inc()
			return nil, apperr.Concurrency(err)
		}
		return nil, apperr.From(fmt.Errorf("recording answer: %w", err))
	}

	s.logger.DebugContext(ctx, "answer recorded",
		"actor_id", actorID,
		"record_id", rec.ID,
		"category", category,
		"value", req.Value,
		"corrected", fix != nil)
	s.publisher.Publish(ctx, event.NewPromptAnswered(rec, slot, category, ans))

	res = &AnswerResult{
		RecordID: rec.ID,
		Slot:     slot,
		Message:  "Response recorded successfully",
	}
	if fix != nil {
		s.publisher.Publish(ctx, event.NewStatusCorrected(fix))
		span.SetAttributes(attribute.String("correction.id", fix.ID))
		res.Corrected = true
		res.NewState = fix.State
		res.Correction = fix
		res.Message = "Status corrected to " + title(fix.State)
	}
	return res, nil
}

// correct appends the record that rewinds rec, provided rec is still the
// actor's latest record. It returns nil when no rewind applies.
func (s *Service) correct(ctx context.Context, tx store.Tx, rec *types.StatusUpdate, now time.Time) (*types.StatusUpdate, error) {
	head, err := tx.Head(ctx, rec.ActorID)
	if err != nil {
		return nil, err
	}
	if head.Latest == nil || head.Latest.ID != rec.ID {
		s.logger.InfoContext(ctx, "answer recorded without correction: record is no longer current",
			"actor_id", rec.ActorID, "record_id", rec.ID)
		return nil, nil
	}

	fix, err := correction.Synthesize(rec, now)
	if errors.Is(err, correction.ErrNoPriorState) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Append(ctx, fix, head.Version); err != nil {
		if errors.Is(err, store.ErrAlreadyCorrected) {
			return nil, apperr.Conflict(apperr.CodeAlreadyCorrected, "status update %s was already corrected", rec.ID)
		}
		return nil, err
	}
	return fix, nil
}
