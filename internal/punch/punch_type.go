package punch

import (
	"time"

	puncherrors "github.com/MisterMaquinas/Ponto-Dom-sub000/internal/punch/errors"
)

// Type is the closed set of punch kinds an operator can register.
type Type string

const (
	TypeEntry      Type = "entry"
	TypeBreakStart Type = "break_start"
	TypeBreakEnd   Type = "break_end"
	TypeExit       Type = "exit"
)

func (t Type) Valid() bool {
	switch t {
	case TypeEntry, TypeBreakStart, TypeBreakEnd, TypeExit:
		return true
	}
	return false
}

// Label returns the display string printed on receipts.
func (t Type) Label() string {
	switch t {
	case TypeEntry:
		return "Entrada"
	case TypeBreakStart:
		return "Inicio de Intervalo"
	case TypeBreakEnd:
		return "Fim de Intervalo"
	case TypeExit:
		return "Saida"
	}
	return string(t)
}

// SuggestType maps the hour of day onto the punch type an operator most
// likely wants. Advisory only: a session never starts without an
// explicit selection.
//
//	06:00-10:00 entry, 11:00-13:00 break_start,
//	13:00-15:00 break_end, 17:00-22:00 exit, otherwise entry.
func SuggestType(now time.Time) Type {
	h := now.Hour()
	switch {
	case h >= 6 && h < 10:
		return TypeEntry
	case h >= 11 && h < 13:
		return TypeBreakStart
	case h >= 13 && h < 15:
		return TypeBreakEnd
	case h >= 17 && h < 22:
		return TypeExit
	default:
		return TypeEntry
	}
}

// SelectType validates an operator's explicit choice.
func SelectType(v string) (Type, error) {
	t := Type(v)
	if !t.Valid() {
		return "", puncherrors.ErrInvalidPunchType
	}
	return t, nil
}
