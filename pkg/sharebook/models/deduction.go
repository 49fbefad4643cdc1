package models

import (
	"time"

	"gorm.io/gorm"
)

// DeductionType classifies a round-level ledger line
type DeductionType string

const (
	DeductionHostFee       DeductionType = "HOST_FEE"
	DeductionInterest      DeductionType = "INTEREST"
	DeductionHostDeduction DeductionType = "HOST_DEDUCTION"
	DeductionOther         DeductionType = "OTHER"
)

// Deduction is a ledger line attached to a completed round, reducing the
// gross pool to the net payout. Rows are created transactionally when a round
// is closed and only ever edited through full replace-on-round semantics.
type Deduction struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	RoundID   uint           `gorm:"not null;index" json:"round_id"`
	Type      DeductionType  `gorm:"type:varchar(20);not null" json:"type"`
	Amount    int64          `gorm:"not null" json:"amount"`
	Note      string         `json:"note,omitempty"`

	// Relationships
	Round Round `gorm:"foreignKey:RoundID" json:"round,omitempty"`
}

// MemberRoundDeduction is a secondary ledger keyed by (round, group member)
// for per-payee adjustments independent of the round-level Deduction list.
// Upserted by amount; a zero or negative amount deletes the row.
type MemberRoundDeduction struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	RoundID       uint           `gorm:"not null;uniqueIndex:idx_round_group_member" json:"round_id"`
	GroupMemberID uint           `gorm:"not null;uniqueIndex:idx_round_group_member" json:"group_member_id"`
	Amount        int64          `gorm:"not null" json:"amount"`
	Note          string         `json:"note,omitempty"`

	// Relationships
	Round       Round       `gorm:"foreignKey:RoundID" json:"round,omitempty"`
	GroupMember GroupMember `gorm:"foreignKey:GroupMemberID" json:"group_member,omitempty"`
}
