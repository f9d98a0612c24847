package calendar

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	appdb "github.com/fieldbook-app/fieldbook/internal/db"
	"github.com/fieldbook-app/fieldbook/internal/testutil"
)

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func setupCalendarTest(t *testing.T) (*appdb.DB, string) {
	t.Helper()

	database := testutil.NewTestDB(t)
	ctx := context.Background()

	field, err := database.Store.CreateField(ctx, appdb.CreateFieldParams{Name: "Court 2"})
	if err != nil {
		t.Fatalf("create field: %v", err)
	}

	store = nil
	storeOnce = sync.Once{}
	InitHandlers(database)

	t.Cleanup(func() {
		store = nil
		storeOnce = sync.Once{}
	})

	return database, field.ID
}

func getCalendar(t *testing.T, fieldID, from string, weeks int) []Occurrence {
	t.Helper()

	target := fmt.Sprintf("/api/v1/fields/%s/calendar?from=%s&weeks=%d", fieldID, from, weeks)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.SetPathValue("id", fieldID)
	recorder := httptest.NewRecorder()

	HandleFieldCalendar(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	var occurrences []Occurrence
	if err := json.Unmarshal(recorder.Body.Bytes(), &occurrences); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return occurrences
}

func TestHandleFieldCalendarProjectsWeeklySlot(t *testing.T) {
	database, fieldID := setupCalendarTest(t)
	ctx := context.Background()

	event, err := database.Store.CreateEvent(ctx, appdb.CreateEventParams{
		Name:  "Tuesday Night League",
		Start: "2024-01-01",
		End:   "2024-06-30",
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	slot, err := database.Store.CreateSlot(ctx, appdb.CreateSlotParams{
		EventID:          event.ID,
		FieldID:          fieldID,
		Repeating:        true,
		DayOfWeek:        intPtr(1),
		StartTimeMinutes: intPtr(540),
		EndTimeMinutes:   intPtr(600),
		StartDate:        "2024-01-01",
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	occurrences := getCalendar(t, fieldID, "2024-01-03", 3)
	want := []string{"2024-01-09T09:00:00", "2024-01-16T09:00:00", "2024-01-23T09:00:00"}
	if len(occurrences) != len(want) {
		t.Fatalf("got %d occurrences, want %d: %+v", len(occurrences), len(want), occurrences)
	}
	for i, occ := range occurrences {
		if occ.Start != want[i] {
			t.Fatalf("occurrence %d start = %s, want %s", i, occ.Start, want[i])
		}
		if occ.SlotID != slot.ID || occ.EventID != event.ID {
			t.Fatalf("occurrence %d references %s/%s", i, occ.SlotID, occ.EventID)
		}
		if occ.End != occurrences[i].Start[:11]+"10:00:00" {
			t.Fatalf("occurrence %d end = %s", i, occ.End)
		}
	}
}

func TestHandleFieldCalendarRespectsEndDate(t *testing.T) {
	database, fieldID := setupCalendarTest(t)
	ctx := context.Background()

	event, err := database.Store.CreateEvent(ctx, appdb.CreateEventParams{
		Name:  "Short Rental",
		Start: "2024-01-01",
		End:   "2024-01-31",
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if _, err := database.Store.CreateSlot(ctx, appdb.CreateSlotParams{
		EventID:          event.ID,
		FieldID:          fieldID,
		Repeating:        true,
		DayOfWeek:        intPtr(1),
		StartTimeMinutes: intPtr(540),
		EndTimeMinutes:   intPtr(600),
		StartDate:        "2024-01-01",
		EndDate:          strPtr("2024-01-10"),
	}); err != nil {
		t.Fatalf("create slot: %v", err)
	}

	occurrences := getCalendar(t, fieldID, "2024-01-03", 8)
	if len(occurrences) != 1 {
		t.Fatalf("got %d occurrences, want 1: %+v", len(occurrences), occurrences)
	}
	if occurrences[0].Start != "2024-01-09T09:00:00" {
		t.Fatalf("occurrence start = %s", occurrences[0].Start)
	}
}

func TestHandleFieldCalendarIncludesOneOffSlots(t *testing.T) {
	database, fieldID := setupCalendarTest(t)
	ctx := context.Background()

	event, err := database.Store.CreateEvent(ctx, appdb.CreateEventParams{
		Name:  "Birthday Party",
		Start: "2024-01-20",
		End:   "2024-01-20",
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if _, err := database.Store.CreateSlot(ctx, appdb.CreateSlotParams{
		EventID:   event.ID,
		FieldID:   fieldID,
		Repeating: false,
		StartDate: "2024-01-20T15:30",
	}); err != nil {
		t.Fatalf("create slot: %v", err)
	}

	occurrences := getCalendar(t, fieldID, "2024-01-03", 4)
	if len(occurrences) != 1 {
		t.Fatalf("got %d occurrences, want 1: %+v", len(occurrences), occurrences)
	}
	if occurrences[0].Start != "2024-01-20T15:30:00" {
		t.Fatalf("occurrence start = %s", occurrences[0].Start)
	}

	// A window after the party shows nothing; one-off slots never repeat.
	if later := getCalendar(t, fieldID, "2024-02-01", 4); len(later) != 0 {
		t.Fatalf("expected no occurrences, got %+v", later)
	}
}

func TestHandleFieldCalendarUnknownField(t *testing.T) {
	setupCalendarTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fields/missing/calendar", nil)
	req.SetPathValue("id", "missing")
	recorder := httptest.NewRecorder()

	HandleFieldCalendar(recorder, req)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status: %d", recorder.Code)
	}
}
