package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fieldbook-app/fieldbook/internal/db"
	"github.com/fieldbook-app/fieldbook/internal/testutil"
)

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func seedFieldAndEvent(t *testing.T, store *db.Store) (string, string) {
	t.Helper()
	ctx := context.Background()

	field, err := store.CreateField(ctx, db.CreateFieldParams{Name: "North Pitch", Surface: "turf"})
	if err != nil {
		t.Fatalf("create field: %v", err)
	}
	event, err := store.CreateEvent(ctx, db.CreateEventParams{
		Name:  "Winter League",
		Start: "2024-02-01",
		End:   "2024-02-28",
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return field.ID, event.ID
}

func TestListSlotsForFieldFiltersByDay(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := database.Store
	ctx := context.Background()
	fieldID, eventID := seedFieldAndEvent(t, store)

	for _, day := range []int{1, 1, 3} {
		_, err := store.CreateSlot(ctx, db.CreateSlotParams{
			EventID:          eventID,
			FieldID:          fieldID,
			Repeating:        true,
			DayOfWeek:        intPtr(day),
			StartTimeMinutes: intPtr(540),
			EndTimeMinutes:   intPtr(600),
			StartDate:        "2024-02-01",
		})
		if err != nil {
			t.Fatalf("create slot: %v", err)
		}
	}
	// One-off slots never participate in weekly conflict checks.
	if _, err := store.CreateSlot(ctx, db.CreateSlotParams{
		EventID:   eventID,
		FieldID:   fieldID,
		Repeating: false,
		StartDate: "2024-02-06T09:00",
	}); err != nil {
		t.Fatalf("create one-off slot: %v", err)
	}

	slots, err := store.ListSlotsForField(ctx, fieldID, 1)
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 Tuesday slots, got %d", len(slots))
	}
	for _, slot := range slots {
		if !slot.Repeating || slot.DayOfWeek == nil || *slot.DayOfWeek != 1 {
			t.Fatalf("unexpected slot in result: %+v", slot)
		}
	}
}

func TestSlotRoundTripPreservesOptionalFields(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := database.Store
	ctx := context.Background()
	fieldID, eventID := seedFieldAndEvent(t, store)

	created, err := store.CreateSlot(ctx, db.CreateSlotParams{
		EventID:          eventID,
		FieldID:          fieldID,
		Repeating:        true,
		DayOfWeek:        intPtr(4),
		StartTimeMinutes: intPtr(1080),
		EndTimeMinutes:   intPtr(1140),
		StartDate:        "2024-02-02",
		EndDate:          strPtr("2024-02-23"),
		PriceCents:       func() *int64 { v := int64(4500); return &v }(),
		Timezone:         "America/New_York",
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	fetched, err := store.GetSlotByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if fetched.EndDate == nil || *fetched.EndDate != "2024-02-23" {
		t.Fatalf("end date = %v", fetched.EndDate)
	}
	if fetched.PriceCents == nil || *fetched.PriceCents != 4500 {
		t.Fatalf("price = %v", fetched.PriceCents)
	}
	if fetched.Timezone != "America/New_York" {
		t.Fatalf("timezone = %q", fetched.Timezone)
	}
	if fetched.DayOfWeek == nil || *fetched.DayOfWeek != 4 {
		t.Fatalf("day = %v", fetched.DayOfWeek)
	}
}

func TestUpdateSlot(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := database.Store
	ctx := context.Background()
	fieldID, eventID := seedFieldAndEvent(t, store)

	created, err := store.CreateSlot(ctx, db.CreateSlotParams{
		EventID:          eventID,
		FieldID:          fieldID,
		Repeating:        true,
		DayOfWeek:        intPtr(1),
		StartTimeMinutes: intPtr(540),
		EndTimeMinutes:   intPtr(600),
		StartDate:        "2024-02-01",
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	updated, err := store.UpdateSlot(ctx, db.UpdateSlotParams{
		ID:               created.ID,
		FieldID:          fieldID,
		Repeating:        true,
		DayOfWeek:        intPtr(2),
		StartTimeMinutes: intPtr(600),
		EndTimeMinutes:   intPtr(660),
		StartDate:        "2024-02-01",
	})
	if err != nil {
		t.Fatalf("update slot: %v", err)
	}
	if *updated.DayOfWeek != 2 || *updated.StartTimeMinutes != 600 {
		t.Fatalf("update not applied: %+v", updated)
	}

	_, err = store.UpdateSlot(ctx, db.UpdateSlotParams{
		ID:        "missing",
		FieldID:   fieldID,
		StartDate: "2024-02-01",
	})
	if !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteEventCascadesSlots(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := database.Store
	ctx := context.Background()
	fieldID, eventID := seedFieldAndEvent(t, store)

	created, err := store.CreateSlot(ctx, db.CreateSlotParams{
		EventID:          eventID,
		FieldID:          fieldID,
		Repeating:        true,
		DayOfWeek:        intPtr(1),
		StartTimeMinutes: intPtr(540),
		EndTimeMinutes:   intPtr(600),
		StartDate:        "2024-02-01",
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	if err := store.DeleteEvent(ctx, eventID); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	if _, err := store.GetSlotByID(ctx, created.ID); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected cascade delete, got %v", err)
	}
}

func TestGetEventByIDMissingIsNotError(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	event, err := database.Store.GetEventByID(ctx, "does-not-exist")
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if event != nil {
		t.Fatalf("expected nil event, got %+v", event)
	}
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	failure := errors.New("abort after insert")
	var fieldID string
	err := database.RunInTx(ctx, func(tx *db.DB) error {
		field, err := tx.Store.CreateField(ctx, db.CreateFieldParams{Name: "South Pitch"})
		if err != nil {
			return err
		}
		fieldID = field.ID
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected wrapped failure, got %v", err)
	}

	if _, err := database.Store.GetFieldByID(ctx, fieldID); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected insert rolled back, got %v", err)
	}
}

func TestRunInTxCommits(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	var fieldID string
	err := database.RunInTx(ctx, func(tx *db.DB) error {
		field, err := tx.Store.CreateField(ctx, db.CreateFieldParams{Name: "East Pitch"})
		if err != nil {
			return err
		}
		fieldID = field.ID
		return nil
	})
	if err != nil {
		t.Fatalf("run in tx: %v", err)
	}

	if _, err := database.Store.GetFieldByID(ctx, fieldID); err != nil {
		t.Fatalf("committed field not found: %v", err)
	}
}
