package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names.
const (
	tableStatusUpdates = "status_updates"
	tableActors        = "actors"
	tableFacilities    = "facilities"
)

var (
	// StatusUpdatesColumns holds the columns for the "status_updates" table.
	StatusUpdatesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "actor_id", Type: field.TypeString},
		{Name: "seq", Type: field.TypeInt64},
		{Name: "state", Type: field.TypeString, Size: 16},
		{Name: "latitude", Type: field.TypeFloat64},
		{Name: "longitude", Type: field.TypeFloat64},
		{Name: "accuracy", Type: field.TypeFloat64, Nullable: true},
		{Name: "heading", Type: field.TypeFloat64, Nullable: true},
		{Name: "speed", Type: field.TypeFloat64, Nullable: true},
		{Name: "reported_at", Type: field.TypeInt64},
		{Name: "source", Type: field.TypeString, Size: 16},
		{Name: "prev_record_id", Type: field.TypeString, Nullable: true, Size: 36},
		{Name: "prev_state", Type: field.TypeString, Nullable: true, Size: 16},
		{Name: "prev_latitude", Type: field.TypeFloat64, Nullable: true},
		{Name: "prev_longitude", Type: field.TypeFloat64, Nullable: true},
		{Name: "prev_reported_at", Type: field.TypeInt64, Nullable: true},
		{Name: "elapsed_seconds", Type: field.TypeInt64, Nullable: true},
		{Name: "distance_miles", Type: field.TypeFloat64, Nullable: true},
		{Name: "prompt_category", Type: field.TypeString, Nullable: true},
		{Name: "prompt", Type: field.TypeJSON, Nullable: true},
		{Name: "prompt_answer", Type: field.TypeJSON, Nullable: true},
		{Name: "overlay_category", Type: field.TypeString, Nullable: true},
		{Name: "overlay", Type: field.TypeJSON, Nullable: true},
		{Name: "overlay_answer", Type: field.TypeJSON, Nullable: true},
		{Name: "corrects_record_id", Type: field.TypeString, Nullable: true, Unique: true, Size: 36},
	}
	// StatusUpdatesTable holds the schema information for the "status_updates" table.
	StatusUpdatesTable = &schema.Table{
		Name:       tableStatusUpdates,
		Columns:    StatusUpdatesColumns,
		PrimaryKey: []*schema.Column{StatusUpdatesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "statusupdate_actor_id_seq",
				Unique:  true,
				Columns: []*schema.Column{StatusUpdatesColumns[1], StatusUpdatesColumns[2]},
			},
		},
	}

	// ActorsColumns holds the columns for the "actors" table.
	ActorsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "state", Type: field.TypeString, Size: 16},
		{Name: "current_record_id", Type: field.TypeString, Size: 36},
		{Name: "version", Type: field.TypeInt64},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	// ActorsTable holds the schema information for the "actors" table.
	ActorsTable = &schema.Table{
		Name:       tableActors,
		Columns:    ActorsColumns,
		PrimaryKey: []*schema.Column{ActorsColumns[0]},
	}

	// FacilitiesColumns holds the columns for the "facilities" table.
	FacilitiesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "name", Type: field.TypeString},
		{Name: "kind", Type: field.TypeString, Nullable: true},
		{Name: "latitude", Type: field.TypeFloat64},
		{Name: "longitude", Type: field.TypeFloat64},
	}
	// FacilitiesTable holds the schema information for the "facilities" table.
	FacilitiesTable = &schema.Table{
		Name:       tableFacilities,
		Columns:    FacilitiesColumns,
		PrimaryKey: []*schema.Column{FacilitiesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "facility_latitude_longitude",
				Columns: []*schema.Column{FacilitiesColumns[3], FacilitiesColumns[4]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		StatusUpdatesTable,
		ActorsTable,
		FacilitiesTable,
	}
)

// Migrate creates or updates the tables.
func Migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("running schema migration: %w", err)
	}
	return nil
}
