package rounds

import (
	"errors"

	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/models"
	"github.com/prasertk/sharebook/pkg/sharebook/respond"
)

// WinnerResult is the committed outcome of recording a round winner
type WinnerResult struct {
	Round          models.Round `json:"round"`
	GroupCompleted bool         `json:"group_completed"`
	IsTailRound    bool         `json:"is_tail_round"`
}

// RecordWinner atomically resolves a PENDING round: validates the candidate,
// computes the payout under the group's formula, materializes the deduction
// ledger (templates + declared interest) and flips the round to COMPLETED.
// The group flips to COMPLETED in the same transaction the moment its last
// round completes.
//
// The winner column is written through a conditional update guarded on the
// round still being PENDING, so two concurrent calls for the same round
// cannot both succeed; the loser observes the already-resolved conflict.
func RecordWinner(db *gorm.DB, tenantID, roundID, groupMemberID uint, declaredInterest int64) (*WinnerResult, error) {
	if declaredInterest < 0 {
		return nil, respond.Validation("Interest must not be negative")
	}

	var result WinnerResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var round models.Round
		if err := tx.Preload("Group").First(&round, roundID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return respond.NotFound("Round not found")
			}
			return err
		}
		if round.Group.TenantID != tenantID {
			// cross-tenant access reads identically to absence
			return respond.NotFound("Round not found")
		}
		group := round.Group

		if round.Status != models.RoundStatusPending {
			return respond.Conflict("Round already has a winner")
		}

		var candidate models.GroupMember
		if err := tx.Where("id = ? AND group_id = ?", groupMemberID, group.ID).First(&candidate).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return respond.Conflict("Candidate is not a member of this group")
			}
			return err
		}

		if round.RoundNumber == 1 && !candidate.IsHost() {
			return respond.Conflict("Round 1 winner must be the host")
		}

		var priorWins int64
		if err := tx.Model(&models.Round{}).
			Where("group_id = ? AND id <> ? AND winner_id = ?", group.ID, round.ID, candidate.ID).
			Count(&priorWins).Error; err != nil {
			return err
		}
		if priorWins > 0 {
			return respond.Conflict("Member has already won a round in this group")
		}

		var slots []models.GroupMember
		if err := tx.Where("group_id = ?", group.ID).Find(&slots).Error; err != nil {
			return err
		}

		var templates []models.GroupDeductionTemplate
		if err := tx.Where("group_id = ?", group.ID).Find(&templates).Error; err != nil {
			return err
		}
		var templateSum int64
		for _, t := range templates {
			templateSum += t.Amount
		}

		payout := ComputePayout(&group, round.RoundNumber, slots, &candidate, declaredInterest, templateSum)
		result.IsTailRound = payout.IsTailRound

		for _, t := range templates {
			d := models.Deduction{
				RoundID: round.ID,
				Type:    models.DeductionOther,
				Amount:  t.Amount,
				Note:    t.Name,
			}
			if err := tx.Create(&d).Error; err != nil {
				return err
			}
		}
		if declaredInterest > 0 {
			d := models.Deduction{
				RoundID: round.ID,
				Type:    models.DeductionInterest,
				Amount:  declaredInterest,
			}
			if err := tx.Create(&d).Error; err != nil {
				return err
			}
		}

		// Conditional update closes the check-then-write race: only one
		// transaction can move the round out of PENDING.
		res := tx.Model(&models.Round{}).
			Where("id = ? AND status = ?", round.ID, models.RoundStatusPending).
			Updates(map[string]interface{}{
				"winner_id":     candidate.ID,
				"winning_bid":   declaredInterest,
				"payout_amount": payout.Amount,
				"status":        models.RoundStatusCompleted,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return respond.Conflict("Round already has a winner")
		}

		var remaining int64
		if err := tx.Model(&models.Round{}).
			Where("group_id = ? AND status <> ?", group.ID, models.RoundStatusCompleted).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			if err := tx.Model(&models.ShareGroup{}).Where("id = ?", group.ID).
				Update("status", models.GroupStatusCompleted).Error; err != nil {
				return err
			}
			result.GroupCompleted = true
		} else if group.Status == models.GroupStatusOpen {
			if err := tx.Model(&models.ShareGroup{}).Where("id = ?", group.ID).
				Update("status", models.GroupStatusInProgress).Error; err != nil {
				return err
			}
		}

		return tx.Preload("Winner").Preload("Winner.User").Preload("Winner.Member").
			Preload("Deductions").First(&result.Round, round.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
