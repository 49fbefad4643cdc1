package rounds

import (
	"time"

	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/models"
	"github.com/prasertk/sharebook/pkg/sharebook/respond"
)

// DueDates computes n due dates starting at start. DAILY steps by cycleDays
// (default 1), WEEKLY by 7 days, MONTHLY to the same day-of-month in later
// months with Go's calendar carry rules for shorter months. Dates are
// anchored at start so a monthly circle starting on the 15th stays on the
// 15th.
func DueDates(start time.Time, cycle models.CycleType, cycleDays, n int) []time.Time {
	dates := make([]time.Time, n)
	for i := 0; i < n; i++ {
		switch cycle {
		case models.CycleMonthly:
			dates[i] = start.AddDate(0, i, 0)
		case models.CycleWeekly:
			dates[i] = start.AddDate(0, 0, 7*i)
		default: // DAILY
			step := cycleDays
			if step <= 0 {
				step = 1
			}
			dates[i] = start.AddDate(0, 0, step*i)
		}
	}
	return dates
}

// GenerateSchedule creates the full round schedule for a group inside the
// given transaction: maxMembers rounds numbered 1..N, all PENDING, round 1
// pre-assigned to the host's slot. Generation is one-shot; if any round
// already exists the operation fails and nothing is written.
//
// overrides replaces the computed due date for specific round numbers. They
// are taken verbatim; keeping them ordered is the caller's responsibility.
func GenerateSchedule(tx *gorm.DB, group *models.ShareGroup, hostSlotID uint, overrides map[int]time.Time) ([]models.Round, error) {
	var existing int64
	if err := tx.Model(&models.Round{}).Where("group_id = ?", group.ID).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, respond.Conflict("Rounds already scheduled for this group")
	}

	dates := DueDates(group.StartDate, group.CycleType, group.CycleDays, group.MaxMembers)

	rounds := make([]models.Round, group.MaxMembers)
	for i := range rounds {
		number := i + 1
		due := dates[i]
		if custom, ok := overrides[number]; ok {
			due = custom
		}
		rounds[i] = models.Round{
			GroupID:     group.ID,
			RoundNumber: number,
			DueDate:     due,
			Status:      models.RoundStatusPending,
		}
		if number == 1 {
			hostID := hostSlotID
			rounds[i].WinnerID = &hostID
		}
	}

	if err := tx.Create(&rounds).Error; err != nil {
		return nil, err
	}
	return rounds, nil
}

// HostSlot returns the group's host GroupMember
func HostSlot(db *gorm.DB, groupID uint) (*models.GroupMember, error) {
	var slot models.GroupMember
	if err := db.Where("group_id = ? AND user_id IS NOT NULL", groupID).First(&slot).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}
