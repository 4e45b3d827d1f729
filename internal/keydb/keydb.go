package keydb

import (
	"unicode"
)

// Layout assigns pitch codes to keyboard characters.
//
// The default layout is the classic tracker "piano" layout:
// the bottom letter row plays the lower octave (white keys on
// z x c v b n m, black keys on s d g h j) and the
// top letter row plays the upper octave (q w e r t y u i,
// black keys on the digit row above it).
// The punctuation after "m" continues the lower row into
// the upper octave, so codes 12..16 have two keys each.
type Layout struct {
	codes map[rune]uint16
}

const (
	lowerRow = "zsxdcvgbhnjm,l.;/"
	upperRow = "q2w3er5t6y7ui9o0p"
)

// Default is the piano layout.
var Default = newLayout(lowerRow, upperRow)

func newLayout(rows ...string) *Layout {
	l := &Layout{codes: make(map[rune]uint16)}
	for i, row := range rows {
		for j, r := range row {
			l.codes[r] = uint16(i*12 + j)
		}
	}
	return l
}

// Code returns the pitch code for r.
// Letters are matched case-insensitively.
func (l *Layout) Code(r rune) (uint16, bool) {
	code, ok := l.codes[unicode.ToLower(r)]
	return code, ok
}

// Len reports the number of mapped characters.
func (l *Layout) Len() int { return len(l.codes) }
