package applicant

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "github.com/zcredlabs/zscore/internal/errors"
)

const (
	MinAge = 18
	MaxAge = 100

	// MaxMonthlyIncome caps validated income at one crore per month.
	MaxMonthlyIncome = 10000000
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
)

// IsValidEmail reports whether email has a plausible mailbox format.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidPhone reports whether phone is a valid Indian mobile number.
// Country prefix, dashes, and spaces are stripped before matching.
func IsValidPhone(phone string) bool {
	normalized := strings.NewReplacer("+91", "", "-", "", " ", "").Replace(phone)
	return phonePattern.MatchString(normalized)
}

// IsValidAge reports whether age falls in the lendable range.
func IsValidAge(age float64) bool {
	return age >= MinAge && age <= MaxAge
}

// IsValidIncome reports whether income is a plausible monthly figure.
func IsValidIncome(income float64) bool {
	return income >= 0 && income <= MaxMonthlyIncome
}

// Validate checks every populated identity and financial field against its
// documented bounds. Absent fields pass; consumers substitute defaults for
// them later.
func (r *Record) Validate() error {
	violations := make(map[string]string)

	if r.Age != nil && !IsValidAge(*r.Age) {
		violations["age"] = fmt.Sprintf("age must be between %d and %d", MinAge, MaxAge)
	}
	if r.MonthlyIncome != nil && !IsValidIncome(*r.MonthlyIncome) {
		violations["monthly_income"] = fmt.Sprintf("monthly income must be between 0 and %d", MaxMonthlyIncome)
	}
	if r.Phone != "" && !IsValidPhone(r.Phone) {
		violations["phone"] = "phone must be a valid 10-digit Indian mobile number"
	}
	if r.Email != "" && !IsValidEmail(r.Email) {
		violations["email"] = "email format is invalid"
	}

	if len(violations) > 0 {
		return apperrors.NewValidationErrorWithMap(violations)
	}
	return nil
}
