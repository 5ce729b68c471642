package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/matthewbaird/waypoint/internal/apperr"
	"github.com/matthewbaird/waypoint/internal/store"
	"github.com/matthewbaird/waypoint/internal/types"
)

// Get returns one of actorID's records. Records owned by other actors are
// reported as not found.
func (s *Service) Get(ctx context.Context, actorID, id string) (*types.StatusUpdate, error) {
	rec, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && rec.ActorID != actorID) {
		return nil, apperr.NotFound("status update %s not found", id)
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("getting status update: %w", err))
	}
	return rec, nil
}

// History returns actorID's records newest first and the next-page cursor.
func (s *Service) History(ctx context.Context, actorID string, opts store.QueryOptions) ([]*types.StatusUpdate, string, error) {
	recs, next, err := s.store.ListByActor(ctx, actorID, opts)
	if err != nil {
		return nil, "", apperr.Internal(fmt.Errorf("listing history: %w", err))
	}
	return recs, next, nil
}

// FollowUpHistory returns actorID's most recent records that carried a prompt.
func (s *Service) FollowUpHistory(ctx context.Context, actorID string, limit int) ([]*types.StatusUpdate, error) {
	recs, _, err := s.History(ctx, actorID, store.QueryOptions{Limit: limit, PromptedOnly: true})
	return recs, err
}

// ActorStatus returns the authoritative current state of actorID.
func (s *Service) ActorStatus(ctx context.Context, actorID string) (*store.ActorState, error) {
	st, err := s.store.ActorState(ctx, actorID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("no status reported yet")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("reading actor state: %w", err))
	}
	return st, nil
}
