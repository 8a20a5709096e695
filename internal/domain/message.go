package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Length bounds for a guestbook entry, counted in characters.
const (
	MinMessageLength = 2
	MaxMessageLength = 100
)

var validate = validator.New()

// Message is a single guestbook entry.
type Message struct {
	Name    string `json:"name" validate:"required"`
	Message string `json:"message" validate:"min=2,max=100"`
}

// Validate checks the entry against the length bounds.
func (m Message) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}

// ValidDraft reports whether text may be submitted as a message body.
func ValidDraft(text string) bool {
	n := utf8.RuneCountInString(text)
	return n >= MinMessageLength && n <= MaxMessageLength
}

// String renders the entry the way the list shows it.
func (m Message) String() string {
	var b strings.Builder
	b.WriteString(m.Message)
	b.WriteString(" - ")
	b.WriteString(m.Name)
	return b.String()
}
