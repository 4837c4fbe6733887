package enums

import "fmt"

// NoteKind distinguishes operator commentary from system audit entries.
type NoteKind string

const (
	NoteKindComment      NoteKind = "comment"
	NoteKindStatusChange NoteKind = "status_change"
)

var validNoteKinds = []NoteKind{
	NoteKindComment,
	NoteKindStatusChange,
}

// String implements fmt.Stringer.
func (n NoteKind) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NoteKind.
func (n NoteKind) IsValid() bool {
	for _, candidate := range validNoteKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNoteKind converts raw input into a NoteKind.
func ParseNoteKind(value string) (NoteKind, error) {
	for _, candidate := range validNoteKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid note kind %q", value)
}
