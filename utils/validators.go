// File: /utils/validators.go
package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// MinPasswordLength is the shortest password accepted at signup and reset.
const MinPasswordLength = 8

// IsValidPassword requires MinPasswordLength characters drawn from at
// least three of: uppercase, lowercase, digits, symbols.
func IsValidPassword(password string) bool {
	if len(password) < MinPasswordLength {
		return false
	}

	var classes [4]bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			classes[0] = true
		case unicode.IsLower(char):
			classes[1] = true
		case unicode.IsNumber(char):
			classes[2] = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			classes[3] = true
		}
	}

	count := 0
	for _, present := range classes {
		if present {
			count++
		}
	}
	return count >= 3
}

// LikeEscapeChar is the escape character used with EscapeLike.
const LikeEscapeChar = "!"

// EscapeLike neutralises LIKE wildcards in a user supplied term. Queries
// must declare ESCAPE '!' for the result to be interpreted correctly.
func EscapeLike(term string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(term)
}

// ContainsPattern builds a lower-cased, escaped "%term%" pattern.
func ContainsPattern(term string) string {
	return "%" + EscapeLike(strings.ToLower(term)) + "%"
}
