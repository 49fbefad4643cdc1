package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrSlotKind is returned when a GroupMember is neither a host slot nor a
// payee slot, or claims to be both.
var ErrSlotKind = errors.New("group member must reference exactly one of user or member")

// GroupMember is one payout slot in a group: either the host (UserID set) or
// a cataloged member (MemberID set), never both. Use NewHostSlot/NewPayeeSlot
// to construct; BeforeSave rejects anything that violates the exclusivity.
type GroupMember struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	GroupID       uint           `gorm:"not null;index" json:"group_id"`
	UserID        *uint          `json:"user_id,omitempty"`
	MemberID      *uint          `json:"member_id,omitempty"`
	Nickname      string         `json:"nickname,omitempty"` // per-group override
	PaymentAmount int64          `json:"payment_amount"`     // per-round contribution while not yet won (STEP_INTEREST)

	// Relationships
	Group  ShareGroup `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	User   *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Member *Member    `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

// NewHostSlot returns the host's payout slot for a group
func NewHostSlot(groupID, userID uint) GroupMember {
	return GroupMember{GroupID: groupID, UserID: &userID}
}

// NewPayeeSlot returns a cataloged member's payout slot for a group
func NewPayeeSlot(groupID, memberID uint) GroupMember {
	return GroupMember{GroupID: groupID, MemberID: &memberID}
}

// IsHost reports whether this slot belongs to the group's host
func (gm *GroupMember) IsHost() bool {
	return gm.UserID != nil
}

// BeforeSave enforces the host-xor-payee invariant at the persistence boundary
func (gm *GroupMember) BeforeSave(tx *gorm.DB) error {
	if (gm.UserID == nil) == (gm.MemberID == nil) {
		return ErrSlotKind
	}
	return nil
}

// DisplayName returns the slot's per-group nickname, falling back to the
// underlying user or member name when loaded.
func (gm *GroupMember) DisplayName() string {
	if gm.Nickname != "" {
		return gm.Nickname
	}
	if gm.User != nil {
		return gm.User.Name
	}
	if gm.Member != nil {
		return gm.Member.Nickname
	}
	return ""
}
