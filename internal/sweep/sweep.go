// Package sweep implements the periodic due-reminder scan: find unsent
// reminders whose moment has passed, dispatch notifications, and durably
// flip the sent flag. Semantics are at-least-once: each flip is persisted
// before the cycle moves on, so a crash mid-cycle can re-send at most the
// reminder whose flip did not complete.
package sweep

import (
	"fmt"
	"log"

	"github.com/pvolkov/remindly/internal/model"
	"github.com/pvolkov/remindly/internal/notify"
	"gorm.io/gorm"
)

// Sweeper runs one scan cycle over the reminder table.
type Sweeper struct {
	db         *gorm.DB
	dispatcher *notify.Dispatcher
	logger     *log.Logger
}

// NewSweeper creates a Sweeper.
func NewSweeper(db *gorm.DB, dispatcher *notify.Dispatcher, logger *log.Logger) *Sweeper {
	return &Sweeper{db: db, dispatcher: dispatcher, logger: logger}
}

// RunOnce scans all unsent reminders, dispatches the due ones, and marks
// them sent. It returns the number of reminders processed. A failure on
// one reminder is logged and never aborts the rest of the cycle; transport
// failures do not block the sent flip either — delivery is a logging
// concern, the flag is the idempotency boundary.
func (s *Sweeper) RunOnce(today model.Date, now model.ClockTime) (int, error) {
	var reminders []model.Reminder
	if err := s.db.Preload("User").Where("sent = ?", false).Find(&reminders).Error; err != nil {
		return 0, fmt.Errorf("load unsent reminders: %w", err)
	}

	processed := 0
	for i := range reminders {
		r := &reminders[i]
		if !IsDue(r, today, now) {
			continue
		}

		s.dispatcher.Dispatch(r)

		if err := s.markSent(r); err != nil {
			s.logger.Printf("sweep: reminder %d: mark sent: %v", r.ID, err)
			continue
		}
		processed++
	}
	return processed, nil
}

// markSent flips the sent flag with a compare-and-swap so a concurrent
// writer cannot resurrect an already-flipped reminder. Zero rows affected
// means someone else completed the transition first, which is fine.
func (s *Sweeper) markSent(r *model.Reminder) error {
	res := s.db.Model(&model.Reminder{}).
		Where("id = ? AND sent = ?", r.ID, false).
		Update("sent", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		s.logger.Printf("sweep: reminder %d: already marked sent", r.ID)
	}
	r.Sent = true
	return nil
}
