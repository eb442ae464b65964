// Package contact defines the contact record and the normalization rules the
// store's secondary indexes are built on.
package contact

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Contact is a single address book entry. ID is assigned by the store on
// creation and never changes afterwards.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Fields holds a partial set of contact fields for an update. A nil pointer
// means the field is left unchanged.
type Fields struct {
	Name  *string
	Phone *string
	Email *string
}

// Empty reports whether no field is set.
func (f Fields) Empty() bool {
	return f.Name == nil && f.Phone == nil && f.Email == nil
}

// NewID returns a fresh globally unique contact id.
func NewID() string {
	return uuid.New().String()
}

// NormalizePhone returns the form of a phone number used as its uniqueness key.
func NormalizePhone(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail returns the form of an email used as its uniqueness key.
// Emails are case-insensitive.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// wordRegex matches runs of letters, digits and a few in-name punctuation
// characters, so "Mary-Jane O'Brien" tokenizes as {mary-jane, o'brien}.
var wordRegex = regexp.MustCompile(`[\pL\pN'-]+`)

// Tokenize splits a name into its lowercase word tokens. These are the keys of
// the name index: a contact is findable by any single word of its name.
func Tokenize(name string) []string {
	words := wordRegex.FindAllString(strings.ToLower(name), -1)
	return words
}
