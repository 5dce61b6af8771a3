package services

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// CodeLength is the number of cells in a verification code.
const CodeLength = 6

// CodeInput models six single-character cells with a focus cursor
type CodeInput struct {
	Cells [CodeLength]string
	Focus int
}

// Type sets cell index to value. Values longer than one character are
// rejected. A non-empty value moves focus to the next cell.
func (c *CodeInput) Type(index int, value string) bool {
	if index < 0 || index >= CodeLength || utf8.RuneCountInString(value) > 1 {
		return false
	}
	c.Cells[index] = value
	c.Focus = index
	if value != "" && index < CodeLength-1 {
		c.Focus = index + 1
	}
	return true
}

// Backspace clears cell index, or moves focus back when it is already empty.
func (c *CodeInput) Backspace(index int) {
	if index < 0 || index >= CodeLength {
		return
	}
	if c.Cells[index] != "" {
		c.Cells[index] = ""
		c.Focus = index
		return
	}
	if index > 0 {
		c.Focus = index - 1
	}
}

// Paste spreads up to six characters over the cells from the left and empties the rest.
func (c *CodeInput) Paste(text string) {
	runes := []rune(text)
	if len(runes) > CodeLength {
		runes = runes[:CodeLength]
	}
	for i := range c.Cells {
		c.Cells[i] = ""
		if i < len(runes) {
			c.Cells[i] = string(runes[i])
		}
	}
	c.Focus = min(len(runes), CodeLength-1)
}

// Clear empties every cell and focuses the first one.
func (c *CodeInput) Clear() {
	c.Cells = [CodeLength]string{}
	c.Focus = 0
}

// Value joins the cells.
func (c CodeInput) Value() string {
	return strings.Join(c.Cells[:], "")
}

// Complete reports whether all six characters are present.
func (c CodeInput) Complete() bool {
	return utf8.RuneCountInString(c.Value()) == CodeLength
}

// FormatClock renders seconds as MM:SS. Nil or negative values render as 00:00.
func FormatClock(seconds *int) string {
	if seconds == nil || *seconds < 0 {
		return "00:00"
	}
	return fmt.Sprintf("%02d:%02d", *seconds/60, *seconds%60)
}

// FormatHours renders seconds as "Hh Mm". Nil or negative values render as "0h 0m".
func FormatHours(seconds *int) string {
	if seconds == nil || *seconds < 0 {
		return "0h 0m"
	}
	return fmt.Sprintf("%dh %dm", *seconds/3600, (*seconds%3600)/60)
}
