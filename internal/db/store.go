package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fieldbook-app/fieldbook/internal/models"
)

// ErrNotFound is returned by Get/Update/Delete operations when the target row
// does not exist.
var ErrNotFound = errors.New("not found")

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Store provides hand-written queries over the fieldbook schema.
type Store struct {
	db DBTX
}

func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// --- Fields ---

type CreateFieldParams struct {
	Name     string
	Surface  string
	Location string
}

func (s *Store) CreateField(ctx context.Context, params CreateFieldParams) (models.Field, error) {
	field := models.Field{
		ID:       uuid.New().String(),
		Name:     params.Name,
		Surface:  params.Surface,
		Location: params.Location,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fields (id, name, surface, location) VALUES (?, ?, ?, ?)`,
		field.ID, field.Name, field.Surface, field.Location,
	)
	if err != nil {
		return models.Field{}, fmt.Errorf("insert field: %w", err)
	}
	return field, nil
}

func (s *Store) GetFieldByID(ctx context.Context, id string) (models.Field, error) {
	var field models.Field
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, surface, location FROM fields WHERE id = ?`, id,
	).Scan(&field.ID, &field.Name, &field.Surface, &field.Location)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Field{}, ErrNotFound
	}
	if err != nil {
		return models.Field{}, fmt.Errorf("select field: %w", err)
	}
	return field, nil
}

func (s *Store) ListFields(ctx context.Context) ([]models.Field, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, surface, location FROM fields ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	defer rows.Close()

	var fields []models.Field
	for rows.Next() {
		var field models.Field
		if err := rows.Scan(&field.ID, &field.Name, &field.Surface, &field.Location); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		fields = append(fields, field)
	}
	return fields, rows.Err()
}

// --- Events ---

type CreateEventParams struct {
	Name  string
	Start string
	End   string
}

func (s *Store) CreateEvent(ctx context.Context, params CreateEventParams) (models.Event, error) {
	event := models.Event{
		ID:    uuid.New().String(),
		Name:  params.Name,
		Start: params.Start,
		End:   params.End,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, name, start_date, end_date) VALUES (?, ?, ?, ?)`,
		event.ID, event.Name, event.Start, event.End,
	)
	if err != nil {
		return models.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// GetEventByID returns the event with the given id, or (nil, nil) when no such
// event exists. Conflict checking treats a missing owning event as
// non-conflicting rather than an error.
func (s *Store) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, start_date, end_date FROM events WHERE id = ?`, id,
	).Scan(&event.ID, &event.Name, &event.Start, &event.End)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select event: %w", err)
	}
	return &event, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, start_date, end_date FROM events ORDER BY start_date, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Name, &event.Start, &event.End); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// DeleteEvent removes an event; its slots cascade.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Time slots ---

type CreateSlotParams struct {
	EventID          string
	FieldID          string
	Repeating        bool
	DayOfWeek        *int
	StartTimeMinutes *int
	EndTimeMinutes   *int
	StartDate        string
	EndDate          *string
	PriceCents       *int64
	Timezone         string
}

const slotColumns = `id, event_id, field_id, repeating, day_of_week, start_minutes, end_minutes, start_date, end_date, price_cents, timezone`

func (s *Store) CreateSlot(ctx context.Context, params CreateSlotParams) (models.TimeSlot, error) {
	slot := models.TimeSlot{
		ID:               uuid.New().String(),
		EventID:          params.EventID,
		FieldID:          params.FieldID,
		Repeating:        params.Repeating,
		DayOfWeek:        params.DayOfWeek,
		StartTimeMinutes: params.StartTimeMinutes,
		EndTimeMinutes:   params.EndTimeMinutes,
		StartDate:        params.StartDate,
		EndDate:          params.EndDate,
		PriceCents:       params.PriceCents,
		Timezone:         params.Timezone,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO time_slots (`+slotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		slot.ID, slot.EventID, slot.FieldID, slot.Repeating,
		toNullInt(slot.DayOfWeek), toNullInt(slot.StartTimeMinutes), toNullInt(slot.EndTimeMinutes),
		slot.StartDate, toNullString(slot.EndDate), toNullInt64(slot.PriceCents), slot.Timezone,
	)
	if err != nil {
		return models.TimeSlot{}, fmt.Errorf("insert slot: %w", err)
	}
	return slot, nil
}

type UpdateSlotParams struct {
	ID               string
	FieldID          string
	Repeating        bool
	DayOfWeek        *int
	StartTimeMinutes *int
	EndTimeMinutes   *int
	StartDate        string
	EndDate          *string
	PriceCents       *int64
	Timezone         string
}

func (s *Store) UpdateSlot(ctx context.Context, params UpdateSlotParams) (models.TimeSlot, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE time_slots
		 SET field_id = ?, repeating = ?, day_of_week = ?, start_minutes = ?, end_minutes = ?,
		     start_date = ?, end_date = ?, price_cents = ?, timezone = ?
		 WHERE id = ?`,
		params.FieldID, params.Repeating,
		toNullInt(params.DayOfWeek), toNullInt(params.StartTimeMinutes), toNullInt(params.EndTimeMinutes),
		params.StartDate, toNullString(params.EndDate), toNullInt64(params.PriceCents), params.Timezone,
		params.ID,
	)
	if err != nil {
		return models.TimeSlot{}, fmt.Errorf("update slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return models.TimeSlot{}, fmt.Errorf("update slot: %w", err)
	}
	if affected == 0 {
		return models.TimeSlot{}, ErrNotFound
	}
	return s.GetSlotByID(ctx, params.ID)
}

func (s *Store) GetSlotByID(ctx context.Context, id string) (models.TimeSlot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM time_slots WHERE id = ?`, id,
	)
	slot, err := scanSlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TimeSlot{}, ErrNotFound
	}
	if err != nil {
		return models.TimeSlot{}, fmt.Errorf("select slot: %w", err)
	}
	return slot, nil
}

func (s *Store) DeleteSlot(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM time_slots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSlotsForField returns the recurring slots booked on a field for one
// Monday-based weekday, in creation order. It backs conflict checking, which
// pre-filters by weekday because slots on different weekdays never collide.
func (s *Store) ListSlotsForField(ctx context.Context, fieldID string, dayOfWeek int) ([]models.TimeSlot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM time_slots
		 WHERE field_id = ? AND repeating = 1 AND day_of_week = ?
		 ORDER BY created_at, id`,
		fieldID, dayOfWeek,
	)
	if err != nil {
		return nil, fmt.Errorf("list slots for field: %w", err)
	}
	return collectSlots(rows)
}

// ListSlotsOnField returns every slot booked on a field regardless of weekday
// or recurrence, in creation order.
func (s *Store) ListSlotsOnField(ctx context.Context, fieldID string) ([]models.TimeSlot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM time_slots WHERE field_id = ? ORDER BY created_at, id`,
		fieldID,
	)
	if err != nil {
		return nil, fmt.Errorf("list slots on field: %w", err)
	}
	return collectSlots(rows)
}

func (s *Store) ListSlotsForEvent(ctx context.Context, eventID string) ([]models.TimeSlot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM time_slots WHERE event_id = ? ORDER BY created_at, id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list slots for event: %w", err)
	}
	return collectSlots(rows)
}

// ListAllSlots returns every stored slot. Used by the expiry sweep.
func (s *Store) ListAllSlots(ctx context.Context) ([]models.TimeSlot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM time_slots ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return collectSlots(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (models.TimeSlot, error) {
	var slot models.TimeSlot
	var day, startMinutes, endMinutes sql.NullInt64
	var endDate sql.NullString
	var priceCents sql.NullInt64
	err := row.Scan(
		&slot.ID, &slot.EventID, &slot.FieldID, &slot.Repeating,
		&day, &startMinutes, &endMinutes,
		&slot.StartDate, &endDate, &priceCents, &slot.Timezone,
	)
	if err != nil {
		return models.TimeSlot{}, err
	}
	slot.DayOfWeek = fromNullInt(day)
	slot.StartTimeMinutes = fromNullInt(startMinutes)
	slot.EndTimeMinutes = fromNullInt(endMinutes)
	if endDate.Valid {
		slot.EndDate = &endDate.String
	}
	if priceCents.Valid {
		slot.PriceCents = &priceCents.Int64
	}
	return slot, nil
}

func collectSlots(rows *sql.Rows) ([]models.TimeSlot, error) {
	defer rows.Close()
	var slots []models.TimeSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func toNullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func toNullInt64(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}

func toNullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func fromNullInt(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	converted := int(value.Int64)
	return &converted
}
