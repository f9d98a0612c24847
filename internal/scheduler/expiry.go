package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fieldbook-app/fieldbook/internal/db"
	"github.com/fieldbook-app/fieldbook/internal/schedule"
)

const expiryJobTimeout = 2 * time.Minute

// RegisterSlotExpiryJob registers a periodic sweep that deletes slots with no
// remaining occurrence: one-off slots whose start has passed and recurring
// slots past their end date. An empty cron expression disables the job.
func RegisterSlotExpiryJob(s *Service, database *db.DB, cronExpr string) error {
	if database == nil {
		return fmt.Errorf("slot expiry job requires database")
	}
	if cronExpr == "" {
		log.Info().Msg("Slot expiry job disabled")
		return nil
	}

	jobName := "slot_expiry"
	jobLogger := log.With().
		Str("component", "slot_expiry_job").
		Str("job_name", jobName).
		Logger()

	_, err := s.AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), expiryJobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		removed, err := sweepExpiredSlots(ctx, database, schedule.Now())
		if err != nil {
			jobLogger.Error().Err(err).Msg("Slot expiry sweep failed")
			return
		}
		if removed > 0 {
			jobLogger.Info().Int("removed", removed).Msg("Expired slots removed")
		}
	})
	return err
}

func sweepExpiredSlots(ctx context.Context, database *db.DB, now time.Time) (int, error) {
	slots, err := database.Store.ListAllSlots(ctx)
	if err != nil {
		return 0, fmt.Errorf("list slots: %w", err)
	}

	logger := log.Ctx(ctx)
	removed := 0
	for _, slot := range slots {
		// A slot with an unparsable start date is left alone rather than
		// silently deleted.
		if _, ok := schedule.ParseLocalDateTime(slot.StartDate); !ok {
			continue
		}
		if _, ok := schedule.NextOccurrence(slot, now); ok {
			continue
		}
		if err := database.Store.DeleteSlot(ctx, slot.ID); err != nil {
			logger.Warn().Err(err).Str("slot_id", slot.ID).Msg("Failed to delete expired slot")
			continue
		}
		removed++
	}
	return removed, nil
}
