package members

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/models"
)

// ErrCodeSpaceExhausted is returned after Z999
var ErrCodeSpaceExhausted = errors.New("member code space exhausted")

// NextMemberCode returns the code following last in the A001..A999, B001..
// sequence. An empty last starts the sequence at A001. The sequence only
// moves forward, so retired codes are never reissued.
func NextMemberCode(last string) (string, error) {
	if last == "" {
		return "A001", nil
	}
	if len(last) != 4 || last[0] < 'A' || last[0] > 'Z' {
		return "", fmt.Errorf("malformed member code %q", last)
	}
	n, err := strconv.Atoi(last[1:])
	if err != nil || n < 1 || n > 999 {
		return "", fmt.Errorf("malformed member code %q", last)
	}

	letter := last[0]
	if n == 999 {
		if letter == 'Z' {
			return "", ErrCodeSpaceExhausted
		}
		return fmt.Sprintf("%c001", letter+1), nil
	}
	return fmt.Sprintf("%c%03d", letter, n+1), nil
}

// issueMemberCode derives the tenant's next code from the highest existing
// one, including soft-deleted members so a retired code is never reused. The
// fixed AXXX format keeps lexicographic and sequence order identical.
func issueMemberCode(tx *gorm.DB, tenantID uint) (string, error) {
	var last string
	err := tx.Unscoped().Model(&models.Member{}).
		Where("tenant_id = ?", tenantID).
		Order("member_code DESC").
		Limit(1).
		Pluck("member_code", &last).Error
	if err != nil {
		return "", err
	}
	return NextMemberCode(last)
}

// isDuplicateCode reports whether the error is a member-code uniqueness
// violation, the signal to re-derive and retry.
func isDuplicateCode(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
