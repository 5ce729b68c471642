package store

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/matthewbaird/waypoint/internal/types"
)

// MemoryStore implements Store and FacilityStore in memory.
// Intended for demos and testing; no database required.
//
// Transactions hold the write lock and work on a copy of the indexes that
// replaces the live state only when fn succeeds. The copy makes every
// transaction linear in the number of stored records, which suits tests and
// offline replay but not production traffic; use SQLStore there.
type MemoryStore struct {
	mu         sync.RWMutex
	state      memState
	facilities []Facility
	now        func() time.Time
}

type memState struct {
	records     map[string]*types.StatusUpdate
	byActor     map[string][]string // record ids in seq order
	actors      map[string]ActorState
	corrections map[string]string // corrected record id -> correcting record id
}

func (s memState) clone() memState {
	byActor := make(map[string][]string, len(s.byActor))
	for k, v := range s.byActor {
		byActor[k] = append([]string(nil), v...)
	}
	return memState{
		records:     maps.Clone(s.records),
		byActor:     byActor,
		actors:      maps.Clone(s.actors),
		corrections: maps.Clone(s.corrections),
	}
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: memState{
			records:     map[string]*types.StatusUpdate{},
			byActor:     map[string][]string{},
			actors:      map[string]ActorState{},
			corrections: map[string]string{},
		},
		now: time.Now,
	}
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{state: s.state.clone(), now: s.now}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*types.StatusUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.get(id)
}

func (s *MemoryStore) ListByActor(_ context.Context, actorID string, opts QueryOptions) ([]*types.StatusUpdate, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	before, hasCursor := opts.cursorSeq()
	var matched []*types.StatusUpdate
	for _, id := range s.state.byActor[actorID] {
		rec := s.state.records[id]
		if hasCursor && rec.Seq >= before {
			continue
		}
		if opts.PromptedOnly && rec.Prompt == nil && rec.Overlay == nil {
			continue
		}
		matched = append(matched, copyRecord(rec))
	}

	// Sort by seq DESC.
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Seq > matched[j].Seq
	})

	limit := opts.limit()
	var next string
	if len(matched) > limit {
		matched = matched[:limit]
		next = encodeCursor(matched[len(matched)-1].Seq)
	}
	return matched, next, nil
}

func (s *MemoryStore) ActorState(_ context.Context, actorID string) (*ActorState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.state.actors[actorID]
	if !ok {
		return nil, ErrNotFound
	}
	return &st, nil
}

func (s *MemoryStore) AddFacility(_ context.Context, f Facility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facilities = append(s.facilities, f)
	return nil
}

func (s *MemoryStore) FacilitiesIn(_ context.Context, box Box) ([]Facility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Facility
	for _, f := range s.facilities {
		if box.Contains(f.Coordinates) {
			out = append(out, f)
		}
	}
	return out, nil
}

type memTx struct {
	state memState
	now   func() time.Time
}

func (t *memTx) Head(_ context.Context, actorID string) (Head, error) {
	ids := t.state.byActor[actorID]
	if len(ids) == 0 {
		return Head{}, nil
	}
	return Head{
		Latest:  copyRecord(t.state.records[ids[len(ids)-1]]),
		Version: t.state.actors[actorID].Version,
	}, nil
}

func (t *memTx) Get(_ context.Context, id string) (*types.StatusUpdate, error) {
	return t.state.get(id)
}

func (t *memTx) Append(_ context.Context, rec *types.StatusUpdate, expectedVersion int64) error {
	if rec.CorrectsRecordID != nil {
		if _, done := t.state.corrections[*rec.CorrectsRecordID]; done {
			return ErrAlreadyCorrected
		}
	}
	if t.state.actors[rec.ActorID].Version != expectedVersion {
		return ErrVersionConflict
	}

	rec.Seq = expectedVersion + 1
	stored := copyRecord(rec)
	t.state.records[rec.ID] = stored
	t.state.byActor[rec.ActorID] = append(t.state.byActor[rec.ActorID], rec.ID)
	t.state.actors[rec.ActorID] = ActorState{
		ActorID:         rec.ActorID,
		State:           rec.State,
		CurrentRecordID: rec.ID,
		Version:         rec.Seq,
		UpdatedAt:       t.now().UTC(),
	}
	if rec.CorrectsRecordID != nil {
		t.state.corrections[*rec.CorrectsRecordID] = rec.ID
	}
	return nil
}

func (t *memTx) SetAnswer(_ context.Context, id string, slot types.PromptSlot, ans types.Answer) error {
	rec, ok := t.state.records[id]
	if !ok {
		return ErrNotFound
	}
	updated := copyRecord(rec)
	a := ans
	switch slot {
	case types.SlotOverlay:
		if updated.OverlayAnswer != nil {
			return ErrAlreadyAnswered
		}
		updated.OverlayAnswer = &a
	default:
		if updated.PromptAnswer != nil {
			return ErrAlreadyAnswered
		}
		updated.PromptAnswer = &a
	}
	t.state.records[id] = updated
	return nil
}

func (s memState) get(id string) (*types.StatusUpdate, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRecord(rec), nil
}

// copyRecord returns a shallow copy. Prompt, answer and previous values are
// never mutated once stored, so sharing them is safe.
func copyRecord(rec *types.StatusUpdate) *types.StatusUpdate {
	c := *rec
	return &c
}
