package authflow

import (
	"regexp"
	"time"
	"unicode"

	"github.com/you/storefront/domain"
)

// User-facing validation messages. These are shown verbatim in the UI.
const (
	msgEmailInvalid      = "Enter a valid email address"
	msgPhoneInvalid      = "Enter a valid phone number"
	msgOTPInvalid        = "Enter the 6-digit code"
	msgFirstNameRequired = "First name is required"
	msgLastNameRequired  = "Last name is required"
	msgDOBFormat         = "Enter your date of birth as YYYY-MM-DD"
	msgDOBTooYoung       = "You must be at least 18 years old"
	msgDOBImplausible    = "Enter a valid date of birth"
	msgPasswordLength    = "Password must be at least 8 characters"
	msgPasswordLower     = "Password must contain a lowercase letter"
	msgPasswordUpper     = "Password must contain an uppercase letter"
	msgPasswordDigit     = "Password must contain a digit"
)

const (
	otpLength     = 6
	minPhoneDigit = 8
	minAge        = 18
	maxAge        = 120
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError reports the first local validation failure of a
// single-field step (identifier entry, OTP entry). It is raised before
// any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return domain.ErrValidation }

// ProfileErrors aggregates every field violation of the onboarding form.
// Unlike the single-field steps, onboarding validation does not stop at
// the first problem: the whole map is populated in one pass so the form
// can mark every broken field at once.
type ProfileErrors map[string][]string

// Any reports whether at least one field failed validation.
func (e ProfileErrors) Any() bool { return len(e) > 0 }

func (e ProfileErrors) add(field, message string) {
	e[field] = append(e[field], message)
}

// validateIdentifier checks an email or phone identifier locally and
// returns the first violation, or "" when the identifier is usable.
func validateIdentifier(method domain.Method, identifier string) string {
	switch method {
	case domain.MethodEmail:
		if !emailPattern.MatchString(identifier) {
			return msgEmailInvalid
		}
	case domain.MethodPhone:
		if digitCount(identifier) < minPhoneDigit {
			return msgPhoneInvalid
		}
	}
	return ""
}

// validateOTP requires exactly six characters.
func validateOTP(otp string) string {
	if len(otp) != otpLength {
		return msgOTPInvalid
	}
	return ""
}

// ValidateProfile checks the whole onboarding form against the given
// reference time and aggregates all violations.
func ValidateProfile(p domain.Profile, now time.Time) ProfileErrors {
	errs := make(ProfileErrors)

	if p.FirstName == "" {
		errs.add("first_name", msgFirstNameRequired)
	}
	if p.LastName == "" {
		errs.add("last_name", msgLastNameRequired)
	}

	dob, err := time.Parse("2006-01-02", p.DateOfBirth)
	if err != nil {
		errs.add("date_of_birth", msgDOBFormat)
	} else {
		switch age := ageAt(dob, now); {
		case age < minAge:
			errs.add("date_of_birth", msgDOBTooYoung)
		case age > maxAge:
			errs.add("date_of_birth", msgDOBImplausible)
		}
	}

	if p.Email != "" && !emailPattern.MatchString(p.Email) {
		errs.add("email", msgEmailInvalid)
	}

	for _, msg := range passwordViolations(p.Password) {
		errs.add("password", msg)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// passwordViolations lists every missing character class, one message per
// class, so the UI can show what exactly is wrong.
func passwordViolations(password string) []string {
	var violations []string
	if len(password) < 8 {
		violations = append(violations, msgPasswordLength)
	}
	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLower {
		violations = append(violations, msgPasswordLower)
	}
	if !hasUpper {
		violations = append(violations, msgPasswordUpper)
	}
	if !hasDigit {
		violations = append(violations, msgPasswordDigit)
	}
	return violations
}

// ageAt computes age by calendar year/month/day difference, not by
// dividing elapsed days: the birthday itself flips the age, leap years
// and all.
func ageAt(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

// digitCount counts decimal digits, ignoring formatting characters like
// spaces, dashes and a leading plus.
func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
