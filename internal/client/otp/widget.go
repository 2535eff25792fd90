// Package otp models the segmented one-time-passcode input: a fixed number of
// single-digit cells sharing one value, with focus-advance, backspace-retreat
// and whole-code paste.
package otp

import (
	"regexp"
	"strings"
)

// Length is the number of cells.
const Length = 6

var (
	cellPattern  = regexp.MustCompile(`^\d?$`)
	pastePattern = regexp.MustCompile(`^\d{6}$`)
)

// Widget is the state of the segmented input. The zero value is an empty
// widget focused on the first cell.
type Widget struct {
	cells [Length]string
	focus int
}

// Input applies the new content of cell i. Only a single digit or an empty
// string is accepted; anything else is ignored and reported as false.
// Accepting a digit moves focus to the next cell unless i is the last.
func (w *Widget) Input(i int, s string) bool {
	if i < 0 || i >= Length || !cellPattern.MatchString(s) {
		return false
	}
	w.cells[i] = s
	if s != "" && i < Length-1 {
		w.focus = i + 1
	} else {
		w.focus = i
	}
	return true
}

// Backspace handles the key on cell i. On an empty cell other than the first,
// focus moves back one cell without touching its content; on a filled cell
// the digit is removed and focus stays.
func (w *Widget) Backspace(i int) {
	if i < 0 || i >= Length {
		return
	}
	if w.cells[i] != "" {
		w.cells[i] = ""
		w.focus = i
		return
	}
	if i > 0 {
		w.focus = i - 1
	}
}

// Paste distributes a clipboard payload. The payload is truncated to Length
// characters and must then be exactly six digits; otherwise nothing changes.
func (w *Widget) Paste(payload string) bool {
	if len(payload) > Length {
		payload = payload[:Length]
	}
	if !pastePattern.MatchString(payload) {
		return false
	}
	for i := 0; i < Length; i++ {
		w.cells[i] = payload[i : i+1]
	}
	w.focus = Length - 1
	return true
}

// Value is the composed code.
func (w *Widget) Value() string {
	return strings.Join(w.cells[:], "")
}

// Cell returns the content of cell i.
func (w *Widget) Cell(i int) string {
	if i < 0 || i >= Length {
		return ""
	}
	return w.cells[i]
}

// Focus returns the index of the focused cell.
func (w *Widget) Focus() int {
	return w.focus
}

// SetFocus moves focus to cell i, as a click would.
func (w *Widget) SetFocus(i int) {
	if i >= 0 && i < Length {
		w.focus = i
	}
}

// Filled reports whether every cell holds a digit.
func (w *Widget) Filled() bool {
	for _, c := range w.cells {
		if c == "" {
			return false
		}
	}
	return true
}

// Reset empties every cell and focuses the first.
func (w *Widget) Reset() {
	*w = Widget{}
}
