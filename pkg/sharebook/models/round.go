package models

import (
	"time"

	"gorm.io/gorm"
)

// RoundStatus represents a round's lifecycle state
type RoundStatus string

const (
	RoundStatusPending   RoundStatus = "PENDING"
	RoundStatusCompleted RoundStatus = "COMPLETED"
	RoundStatusSkipped   RoundStatus = "SKIPPED"
)

// Round is one payout cycle within a group. Round numbers are dense 1..N and
// unique per group. Round 1's winner is fixed to the host slot at group
// creation and cannot be reassigned; every slot wins at most once.
type Round struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	GroupID      uint           `gorm:"not null;uniqueIndex:idx_group_round_number" json:"group_id"`
	RoundNumber  int            `gorm:"not null;uniqueIndex:idx_group_round_number" json:"round_number"`
	DueDate      time.Time      `gorm:"not null" json:"due_date"`
	Status       RoundStatus    `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	WinnerID     *uint          `json:"winner_id,omitempty"` // GroupMember; nil until resolved (except round 1)
	WinningBid   int64          `json:"winning_bid"`         // declared interest/bid recorded at resolution
	PayoutAmount int64          `json:"payout_amount"`       // computed net amount

	// Relationships
	Group      ShareGroup   `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	Winner     *GroupMember `gorm:"foreignKey:WinnerID" json:"winner,omitempty"`
	Deductions []Deduction  `gorm:"foreignKey:RoundID" json:"deductions,omitempty"`
}
