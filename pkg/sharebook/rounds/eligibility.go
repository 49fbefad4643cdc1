package rounds

import (
	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/models"
)

// EligibleMembers returns the winner candidates for a round: all of the
// group's slots that are not recorded as winner of any other round. Round 1
// is the host's round; its candidate set is the singleton host slot.
func EligibleMembers(db *gorm.DB, round *models.Round) ([]models.GroupMember, error) {
	var slots []models.GroupMember
	if err := db.Preload("User").Preload("Member").
		Where("group_id = ?", round.GroupID).
		Order("id").
		Find(&slots).Error; err != nil {
		return nil, err
	}

	if round.RoundNumber == 1 {
		for i := range slots {
			if slots[i].IsHost() {
				return slots[i : i+1], nil
			}
		}
		return nil, nil
	}

	var winnerIDs []uint
	if err := db.Model(&models.Round{}).
		Where("group_id = ? AND id <> ? AND winner_id IS NOT NULL", round.GroupID, round.ID).
		Pluck("winner_id", &winnerIDs).Error; err != nil {
		return nil, err
	}

	won := make(map[uint]bool, len(winnerIDs))
	for _, id := range winnerIDs {
		won[id] = true
	}

	eligible := make([]models.GroupMember, 0, len(slots))
	for _, s := range slots {
		if !won[s.ID] {
			eligible = append(eligible, s)
		}
	}
	return eligible, nil
}
