package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const tableEntries = "activity_entries"

var (
	// EntriesColumns holds the columns for the "activity_entries" table.
	EntriesColumns = []*schema.Column{
		{Name: "seq", Type: field.TypeInt64, Increment: true},
		{Name: "event_id", Type: field.TypeString, Unique: true, Size: 36},
		{Name: "event_type", Type: field.TypeString, Size: 32},
		{Name: "actor_id", Type: field.TypeString},
		{Name: "record_id", Type: field.TypeString, Nullable: true, Size: 36},
		{Name: "occurred_at", Type: field.TypeInt64},
		{Name: "summary", Type: field.TypeString, Size: 512},
		{Name: "category", Type: field.TypeString, Size: 16},
		{Name: "weight", Type: field.TypeString, Size: 16},
		{Name: "payload", Type: field.TypeJSON, Nullable: true},
	}
	// EntriesTable holds the schema information for the "activity_entries" table.
	EntriesTable = &schema.Table{
		Name:       tableEntries,
		Columns:    EntriesColumns,
		PrimaryKey: []*schema.Column{EntriesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "activity_actor_id_seq",
				Columns: []*schema.Column{EntriesColumns[3], EntriesColumns[0]},
			},
		},
	}
)

var entryColumns = []string{
	"seq", "event_id", "event_type", "actor_id", "record_id",
	"occurred_at", "summary", "category", "weight", "payload",
}

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	drv *entsql.Driver
	db  *sql.DB
}

// NewSQLStore wraps an ent SQL driver.
func NewSQLStore(drv *entsql.Driver) *SQLStore {
	return &SQLStore{drv: drv, db: drv.DB()}
}

// Migrate creates the activity_entries table.
func (s *SQLStore) Migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(s.drv)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Create(ctx, EntriesTable); err != nil {
		return fmt.Errorf("running activity migration: %w", err)
	}
	return nil
}

func (s *SQLStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.drv.Dialect())
}

// WriteEntries implements Store.
func (s *SQLStore) WriteEntries(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	ins := s.builder().Insert(tableEntries).
		Columns(entryColumns[1:]...)
	for _, e := range entries {
		var payload any
		if len(e.Payload) > 0 {
			payload = string(e.Payload)
		}
		var recordID any
		if e.RecordID != "" {
			recordID = e.RecordID
		}
		ins.Values(e.EventID, e.EventType, e.ActorID, recordID,
			e.OccurredAt.UnixNano(), e.Summary, e.Category, e.Weight, payload)
	}
	query, args := ins.
		OnConflict(entsql.ConflictColumns("event_id"), entsql.DoNothing()).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting activity entries: %w", err)
	}
	return nil
}

// QueryByActor implements Store.
func (s *SQLStore) QueryByActor(ctx context.Context, actorID string, opts QueryOptions) ([]Entry, string, error) {
	b := s.builder()
	limit := opts.limit()

	preds := []*entsql.Predicate{entsql.EQ("actor_id", actorID)}
	if seq, ok := opts.cursorSeq(); ok {
		preds = append(preds, entsql.LT("seq", seq))
	}
	if opts.Since != nil {
		preds = append(preds, entsql.GTE("occurred_at", opts.Since.UnixNano()))
	}
	if opts.Until != nil {
		preds = append(preds, entsql.LTE("occurred_at", opts.Until.UnixNano()))
	}
	if len(opts.EventTypes) > 0 {
		preds = append(preds, entsql.In("event_type", anySlice(opts.EventTypes)...))
	}
	if opts.MinWeight != "" {
		preds = append(preds, entsql.In("weight", anySlice(weightsAtLeast(opts.MinWeight))...))
	}
	if opts.Text != "" {
		preds = append(preds, entsql.ContainsFold("summary", opts.Text))
	}

	query, args := b.Select(entryColumns...).
		From(b.Table(tableEntries)).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("seq")).
		Limit(limit + 1). // fetch one extra for cursor
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			recordID   sql.NullString
			occurredAt int64
			payload    sql.NullString
		)
		if err := rows.Scan(&e.Seq, &e.EventID, &e.EventType, &e.ActorID, &recordID,
			&occurredAt, &e.Summary, &e.Category, &e.Weight, &payload); err != nil {
			return nil, "", fmt.Errorf("scanning activity entry: %w", err)
		}
		e.RecordID = recordID.String
		e.OccurredAt = time.Unix(0, occurredAt).UTC()
		if payload.Valid {
			e.Payload = json.RawMessage(payload.String)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("querying activity: %w", err)
	}

	var next string
	if len(out) > limit {
		out = out[:limit]
		next = encodeCursor(out[len(out)-1].Seq)
	}
	return out, next, nil
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
