// Package passpolicy evaluates candidate passwords against the fixed set of
// requirements shown in the account forms. Evaluation is pure: every input,
// including the empty string, maps to a defined result, and all requirements
// are always evaluated so the UI can render live per-rule feedback.
package passpolicy

import (
	"strings"
	"unicode"
)

// SpecialChars is the accepted special-character set.
const SpecialChars = `!@#$%^&*(),.?":{}|<>`

// MinLength is the minimum accepted password length, in runes.
const MinLength = 8

// Requirement is a single named rule and whether the candidate satisfies it.
type Requirement struct {
	Label     string `json:"label"`
	Satisfied bool   `json:"satisfied"`
}

// EvaluateRequirements returns the four requirements in fixed order:
// length, case mixture, digit presence, special-character presence.
func EvaluateRequirements(password string) []Requirement {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	n := 0
	for _, r := range password {
		n++
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
		if strings.ContainsRune(SpecialChars, r) {
			hasSpecial = true
		}
	}

	return []Requirement{
		{Label: "Mínimo 8 caracteres", Satisfied: n >= MinLength},
		{Label: "Mayúsculas y minúsculas", Satisfied: hasUpper && hasLower},
		{Label: "Al menos un número", Satisfied: hasDigit},
		{Label: "Al menos un carácter especial", Satisfied: hasSpecial},
	}
}

// IsValid reports whether the candidate satisfies every requirement.
func IsValid(password string) bool {
	for _, req := range EvaluateRequirements(password) {
		if !req.Satisfied {
			return false
		}
	}
	return true
}

// PasswordsMatch reports whether password and its confirmation agree.
// An empty/empty pair is defined as not matching.
func PasswordsMatch(password, confirm string) bool {
	return password != "" && password == confirm
}
