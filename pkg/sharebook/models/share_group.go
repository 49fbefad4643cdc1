package models

import (
	"time"

	"gorm.io/gorm"
)

// GroupType selects the payout formula applied when a round winner is recorded
type GroupType string

const (
	// GroupTypeStepInterest is the only type with per-slot variable contributions.
	GroupTypeStepInterest  GroupType = "STEP_INTEREST"
	GroupTypeFixedInterest GroupType = "FIXED_INTEREST"
	GroupTypeBidInterest   GroupType = "BID_INTEREST"
	GroupTypeBidPrincipal  GroupType = "BID_PRINCIPAL"
	// GroupTypeBidPrincipalFirst deducts the bid from the principal up front.
	GroupTypeBidPrincipalFirst GroupType = "BID_PRINCIPAL_FIRST"
)

// CycleType determines the spacing of round due dates
type CycleType string

const (
	CycleDaily   CycleType = "DAILY"
	CycleWeekly  CycleType = "WEEKLY"
	CycleMonthly CycleType = "MONTHLY"
)

// GroupStatus represents a share group's lifecycle state
type GroupStatus string

const (
	GroupStatusDraft      GroupStatus = "DRAFT"
	GroupStatusOpen       GroupStatus = "OPEN"
	GroupStatusInProgress GroupStatus = "IN_PROGRESS"
	GroupStatusCompleted  GroupStatus = "COMPLETED" // derived: set when the last round completes
	GroupStatusCancelled  GroupStatus = "CANCELLED"
)

// ShareGroup represents one rotating-fund circle: a fixed pool of members,
// a fixed per-round contribution, one winner per round until everyone has won.
// Structural fields (type, maxMembers, principal, cycle) are immutable once
// the group leaves DRAFT. Amounts are whole currency units (baht).
type ShareGroup struct {
	ID                  uint           `gorm:"primarykey" json:"id"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
	TenantID            uint           `gorm:"not null;index" json:"tenant_id"`
	HostUserID          uint           `gorm:"not null" json:"host_user_id"`
	Name                string         `gorm:"not null" json:"name"`
	Type                GroupType      `gorm:"type:varchar(30);not null" json:"type"`
	MaxMembers          int            `gorm:"not null" json:"max_members"` // = number of rounds = number of payout slots
	PrincipalAmount     int64          `gorm:"not null" json:"principal_amount"`
	ManagementFee       int64          `json:"management_fee"`
	InterestRate        float64        `json:"interest_rate"`
	CycleType           CycleType      `gorm:"type:varchar(10);not null" json:"cycle_type"`
	CycleDays           int            `json:"cycle_days"` // DAILY only, default 1
	StartDate           time.Time      `gorm:"not null" json:"start_date"`
	TailDeductionRounds int            `json:"tail_deduction_rounds"` // final N rounds flagged as tail (labeling only)
	Status              GroupStatus    `gorm:"type:varchar(20);default:'DRAFT'" json:"status"`

	// Relationships
	Tenant    Tenant                   `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	HostUser  User                     `gorm:"foreignKey:HostUserID" json:"host_user,omitempty"`
	Templates []GroupDeductionTemplate `gorm:"foreignKey:GroupID" json:"templates,omitempty"`
	Members   []GroupMember            `gorm:"foreignKey:GroupID" json:"members,omitempty"`
	Rounds    []Round                  `gorm:"foreignKey:GroupID" json:"rounds,omitempty"`
}

// IsTailRound reports whether the given round falls in the final
// tailDeductionRounds rounds of the group. Informational only; it never
// changes the payout arithmetic.
func (g *ShareGroup) IsTailRound(roundNumber int) bool {
	if g.TailDeductionRounds <= 0 {
		return false
	}
	return roundNumber >= g.MaxMembers-g.TailDeductionRounds+1
}

// GroupDeductionTemplate is a named fixed-amount recurring deduction
// (e.g. "ค่าอาหาร") applied to every round when a winner is recorded.
type GroupDeductionTemplate struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	GroupID   uint           `gorm:"not null;index" json:"group_id"`
	Name      string         `gorm:"not null" json:"name"`
	Amount    int64          `gorm:"not null" json:"amount"`

	// Relationships
	Group ShareGroup `gorm:"foreignKey:GroupID" json:"group,omitempty"`
}
