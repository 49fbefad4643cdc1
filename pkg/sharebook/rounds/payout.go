package rounds

import "github.com/prasertk/sharebook/pkg/sharebook/models"

// PayoutResult is the outcome of the payout computation for one round
type PayoutResult struct {
	Amount      int64 `json:"amount"`
	IsTailRound bool  `json:"is_tail_round"` // labeling only, never changes the arithmetic
}

// ComputePayout selects the payout formula for the group's type and applies
// it. Pure: no persistence, callers pass the full slot list and the sum of
// the group's deduction templates.
//
// STEP_INTEREST is the only type with per-slot variable contributions. The
// host never contributes; when the host (always round 1) wins, it collects
// everything the members paid in that cycle. When a member wins, it nets the
// principal after what everyone else contributed and its own contribution.
//
// Every other type pools principal * maxMembers and subtracts the declared
// interest/bid and the template deductions.
func ComputePayout(group *models.ShareGroup, roundNumber int, slots []models.GroupMember, winner *models.GroupMember, declaredInterest, templateSum int64) PayoutResult {
	result := PayoutResult{IsTailRound: group.IsTailRound(roundNumber)}

	switch group.Type {
	case models.GroupTypeStepInterest:
		var totalMemberPayments int64
		for i := range slots {
			if !slots[i].IsHost() {
				totalMemberPayments += slots[i].PaymentAmount
			}
		}
		if roundNumber == 1 || winner.IsHost() {
			result.Amount = totalMemberPayments
			return result
		}
		otherMembersPayments := totalMemberPayments - winner.PaymentAmount
		result.Amount = group.PrincipalAmount - otherMembersPayments - winner.PaymentAmount
		return result

	default:
		totalPool := group.PrincipalAmount * int64(group.MaxMembers)
		result.Amount = totalPool - declaredInterest - templateSum
		return result
	}
}
