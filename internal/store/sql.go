package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/lib/pq"

	"github.com/matthewbaird/waypoint/internal/types"
)

// SQLStore implements Store and FacilityStore on SQLite or Postgres. Queries
// are built with ent's SQL builder so placeholders and quoting follow the
// driver's dialect.
type SQLStore struct {
	drv *entsql.Driver
	db  *sql.DB
	now func() time.Time
}

// NewSQLStore wraps an ent SQL driver.
func NewSQLStore(drv *entsql.Driver) *SQLStore {
	return &SQLStore{drv: drv, db: drv.DB(), now: time.Now}
}

// Migrate creates the store's tables.
func (s *SQLStore) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.drv)
}

// Driver returns the ent driver, for stores that share the connection pool.
func (s *SQLStore) Driver() *entsql.Driver { return s.drv }

func (s *SQLStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.drv.Dialect())
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InTx implements Store.
func (s *SQLStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(ctx, &sqlTx{q: tx, b: s.builder(), now: s.now}); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back transaction: %v", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, id string) (*types.StatusUpdate, error) {
	return getRecord(ctx, s.db, s.builder(), id)
}

// ListByActor implements Store.
func (s *SQLStore) ListByActor(ctx context.Context, actorID string, opts QueryOptions) ([]*types.StatusUpdate, string, error) {
	b := s.builder()
	limit := opts.limit()

	preds := []*entsql.Predicate{entsql.EQ("actor_id", actorID)}
	if seq, ok := opts.cursorSeq(); ok {
		preds = append(preds, entsql.LT("seq", seq))
	}
	if opts.PromptedOnly {
		preds = append(preds, entsql.Or(entsql.NotNull("prompt_category"), entsql.NotNull("overlay_category")))
	}

	query, args := b.Select(recordColumns...).
		From(b.Table(tableStatusUpdates)).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("seq")).
		Limit(limit + 1). // fetch one extra for cursor
		Query()

	recs, err := queryRecords(ctx, s.db, query, args)
	if err != nil {
		return nil, "", fmt.Errorf("listing status updates: %w", err)
	}

	var next string
	if len(recs) > limit {
		recs = recs[:limit]
		next = encodeCursor(recs[len(recs)-1].Seq)
	}
	return recs, next, nil
}

// ActorState implements Store.
func (s *SQLStore) ActorState(ctx context.Context, actorID string) (*ActorState, error) {
	b := s.builder()
	query, args := b.Select("id", "state", "current_record_id", "version", "updated_at").
		From(b.Table(tableActors)).
		Where(entsql.EQ("id", actorID)).
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying actor state: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying actor state: %w", err)
		}
		return nil, ErrNotFound
	}
	var (
		st        ActorState
		state     string
		updatedAt int64
	)
	if err := rows.Scan(&st.ActorID, &state, &st.CurrentRecordID, &st.Version, &updatedAt); err != nil {
		return nil, fmt.Errorf("scanning actor state: %w", err)
	}
	st.State = types.State(state)
	st.UpdatedAt = fromNanos(updatedAt)
	return &st, nil
}

// AddFacility implements FacilityStore.
func (s *SQLStore) AddFacility(ctx context.Context, f Facility) error {
	query, args := s.builder().Insert(tableFacilities).
		Columns("id", "name", "kind", "latitude", "longitude").
		Values(f.ID, f.Name, nullString(f.Kind), f.Coordinates.Latitude, f.Coordinates.Longitude).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting facility: %w", err)
	}
	return nil
}

// FacilitiesIn implements FacilityStore.
func (s *SQLStore) FacilitiesIn(ctx context.Context, box Box) ([]Facility, error) {
	b := s.builder()
	query, args := b.Select("id", "name", "kind", "latitude", "longitude").
		From(b.Table(tableFacilities)).
		Where(entsql.And(
			entsql.GTE("latitude", box.MinLat),
			entsql.LTE("latitude", box.MaxLat),
			entsql.GTE("longitude", box.MinLon),
			entsql.LTE("longitude", box.MaxLon),
		)).
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying facilities: %w", err)
	}
	defer rows.Close()

	var out []Facility
	for rows.Next() {
		var (
			f    Facility
			kind sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.Name, &kind, &f.Coordinates.Latitude, &f.Coordinates.Longitude); err != nil {
			return nil, fmt.Errorf("scanning facility: %w", err)
		}
		f.Kind = kind.String
		out = append(out, f)
	}
	return out, rows.Err()
}

type sqlTx struct {
	q   querier
	b   *entsql.DialectBuilder
	now func() time.Time
}

func (t *sqlTx) Head(ctx context.Context, actorID string) (Head, error) {
	query, args := t.b.Select(recordColumns...).
		From(t.b.Table(tableStatusUpdates)).
		Where(entsql.EQ("actor_id", actorID)).
		OrderBy(entsql.Desc("seq")).
		Limit(1).
		Query()
	recs, err := queryRecords(ctx, t.q, query, args)
	if err != nil {
		return Head{}, fmt.Errorf("reading latest status update: %w", err)
	}
	if len(recs) == 0 {
		return Head{}, nil
	}

	query, args = t.b.Select("version").
		From(t.b.Table(tableActors)).
		Where(entsql.EQ("id", actorID)).
		Query()
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return Head{}, fmt.Errorf("reading actor version: %w", err)
	}
	defer rows.Close()

	h := Head{Latest: recs[0]}
	if rows.Next() {
		if err := rows.Scan(&h.Version); err != nil {
			return Head{}, fmt.Errorf("scanning actor version: %w", err)
		}
	}
	return h, rows.Err()
}

func (t *sqlTx) Get(ctx context.Context, id string) (*types.StatusUpdate, error) {
	return getRecord(ctx, t.q, t.b, id)
}

func (t *sqlTx) Append(ctx context.Context, rec *types.StatusUpdate, expectedVersion int64) error {
	if rec.CorrectsRecordID != nil {
		query, args := t.b.Select(entsql.Count("*")).
			From(t.b.Table(tableStatusUpdates)).
			Where(entsql.EQ("corrects_record_id", *rec.CorrectsRecordID)).
			Query()
		n, err := queryCount(ctx, t.q, query, args)
		if err != nil {
			return fmt.Errorf("checking existing correction: %w", err)
		}
		if n > 0 {
			return ErrAlreadyCorrected
		}
	}

	next := expectedVersion + 1
	now := t.now().UnixNano()

	if expectedVersion == 0 {
		query, args := t.b.Insert(tableActors).
			Columns("id", "state", "current_record_id", "version", "updated_at").
			Values(rec.ActorID, string(rec.State), rec.ID, next, now).
			Query()
		if _, err := t.q.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return ErrVersionConflict
			}
			return fmt.Errorf("creating actor: %w", err)
		}
	} else {
		query, args := t.b.Update(tableActors).
			Set("state", string(rec.State)).
			Set("current_record_id", rec.ID).
			Set("version", next).
			Set("updated_at", now).
			Where(entsql.And(entsql.EQ("id", rec.ActorID), entsql.EQ("version", expectedVersion))).
			Query()
		res, err := t.q.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("updating actor: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("updating actor: %w", err)
		} else if n == 0 {
			return ErrVersionConflict
		}
	}

	rec.Seq = next
	row, err := recordRow(rec)
	if err != nil {
		return err
	}
	query, args := t.b.Insert(tableStatusUpdates).Columns(recordColumns...).Values(row...).Query()
	if _, err := t.q.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			if rec.CorrectsRecordID != nil {
				return ErrAlreadyCorrected
			}
			return ErrVersionConflict
		}
		return fmt.Errorf("inserting status update: %w", err)
	}
	return nil
}

func (t *sqlTx) SetAnswer(ctx context.Context, id string, slot types.PromptSlot, ans types.Answer) error {
	col := "prompt_answer"
	if slot == types.SlotOverlay {
		col = "overlay_answer"
	}
	data, err := json.Marshal(ans)
	if err != nil {
		return fmt.Errorf("encoding answer: %w", err)
	}

	query, args := t.b.Update(tableStatusUpdates).
		Set(col, string(data)).
		Where(entsql.And(entsql.EQ("id", id), entsql.IsNull(col))).
		Query()
	res, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("recording answer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("recording answer: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := t.Get(ctx, id); err != nil {
		return err
	}
	return ErrAlreadyAnswered
}

// recordColumns is the column order used by recordRow and scanRecord.
var recordColumns = func() []string {
	cols := make([]string, len(StatusUpdatesColumns))
	for i, c := range StatusUpdatesColumns {
		cols[i] = c.Name
	}
	return cols
}()

func getRecord(ctx context.Context, q querier, b *entsql.DialectBuilder, id string) (*types.StatusUpdate, error) {
	query, args := b.Select(recordColumns...).
		From(b.Table(tableStatusUpdates)).
		Where(entsql.EQ("id", id)).
		Query()
	recs, err := queryRecords(ctx, q, query, args)
	if err != nil {
		return nil, fmt.Errorf("querying status update: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}

func queryRecords(ctx context.Context, q querier, query string, args []any) ([]*types.StatusUpdate, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.StatusUpdate
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func queryCount(ctx context.Context, q querier, query string, args []any) (int64, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}

func recordRow(rec *types.StatusUpdate) ([]any, error) {
	prompt, err := jsonValue(rec.Prompt)
	if err != nil {
		return nil, fmt.Errorf("encoding prompt: %w", err)
	}
	promptAns, err := jsonValue(rec.PromptAnswer)
	if err != nil {
		return nil, fmt.Errorf("encoding prompt answer: %w", err)
	}
	overlay, err := jsonValue(rec.Overlay)
	if err != nil {
		return nil, fmt.Errorf("encoding overlay: %w", err)
	}
	overlayAns, err := jsonValue(rec.OverlayAnswer)
	if err != nil {
		return nil, fmt.Errorf("encoding overlay answer: %w", err)
	}

	var prevID, prevState, prevLat, prevLon, prevAt any
	if p := rec.Previous; p != nil {
		prevID, prevState = p.RecordID, string(p.State)
		prevLat, prevLon = p.Coordinates.Latitude, p.Coordinates.Longitude
		prevAt = p.ReportedAt.UnixNano()
	}
	var promptCat, overlayCat any
	if rec.Prompt != nil {
		promptCat = string(rec.Prompt.Category)
	}
	if rec.Overlay != nil {
		overlayCat = string(rec.Overlay.Category)
	}

	return []any{
		rec.ID, rec.ActorID, rec.Seq, string(rec.State),
		rec.Coordinates.Latitude, rec.Coordinates.Longitude,
		nullFloat(rec.Accuracy), nullFloat(rec.Heading), nullFloat(rec.Speed),
		rec.ReportedAt.UnixNano(), string(rec.Source),
		prevID, prevState, prevLat, prevLon, prevAt,
		nullInt(rec.ElapsedSeconds), nullFloat(rec.DistanceMiles),
		promptCat, prompt, promptAns,
		overlayCat, overlay, overlayAns,
		nullStringPtr(rec.CorrectsRecordID),
	}, nil
}

func scanRecord(rows *sql.Rows) (*types.StatusUpdate, error) {
	var (
		rec                        types.StatusUpdate
		state, source              string
		reportedAt                 int64
		accuracy, heading, speed   sql.NullFloat64
		prevID, prevState          sql.NullString
		prevLat, prevLon, distance sql.NullFloat64
		prevAt, elapsed            sql.NullInt64
		promptCat, overlayCat      sql.NullString
		prompt, promptAns          sql.NullString
		overlay, overlayAns        sql.NullString
		corrects                   sql.NullString
	)
	err := rows.Scan(
		&rec.ID, &rec.ActorID, &rec.Seq, &state,
		&rec.Coordinates.Latitude, &rec.Coordinates.Longitude,
		&accuracy, &heading, &speed,
		&reportedAt, &source,
		&prevID, &prevState, &prevLat, &prevLon, &prevAt,
		&elapsed, &distance,
		&promptCat, &prompt, &promptAns,
		&overlayCat, &overlay, &overlayAns,
		&corrects,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning status update: %w", err)
	}

	rec.State = types.State(state)
	rec.Source = types.Source(source)
	rec.ReportedAt = fromNanos(reportedAt)
	rec.Accuracy = floatPtr(accuracy)
	rec.Heading = floatPtr(heading)
	rec.Speed = floatPtr(speed)
	rec.ElapsedSeconds = intPtr(elapsed)
	rec.DistanceMiles = floatPtr(distance)
	if prevID.Valid {
		rec.Previous = &types.Previous{
			RecordID:    prevID.String,
			State:       types.State(prevState.String),
			Coordinates: types.Coordinates{Latitude: prevLat.Float64, Longitude: prevLon.Float64},
			ReportedAt:  fromNanos(prevAt.Int64),
		}
	}
	if corrects.Valid {
		rec.CorrectsRecordID = &corrects.String
	}

	if err := decodeJSON(prompt, &rec.Prompt); err != nil {
		return nil, fmt.Errorf("decoding prompt: %w", err)
	}
	if err := decodeJSON(promptAns, &rec.PromptAnswer); err != nil {
		return nil, fmt.Errorf("decoding prompt answer: %w", err)
	}
	if err := decodeJSON(overlay, &rec.Overlay); err != nil {
		return nil, fmt.Errorf("decoding overlay: %w", err)
	}
	if err := decodeJSON(overlayAns, &rec.OverlayAnswer); err != nil {
		return nil, fmt.Errorf("decoding overlay answer: %w", err)
	}
	return &rec, nil
}

// jsonValue encodes v as a JSON string, or returns nil (SQL NULL) for a nil pointer.
func jsonValue[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeJSON[T any](s sql.NullString, dst **T) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	var v T
	if err := json.Unmarshal([]byte(s.String), &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullStringPtr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// isUniqueViolation recognizes unique-constraint failures from lib/pq and
// modernc sqlite.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
