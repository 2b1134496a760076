package model

import "strings"

// CodeLength is the number of digits in a pickup confirmation code.
const CodeLength = 6

// FocusIntent tells the presentation layer which slot should take focus
// after an edit. NoFocusChange means leave focus where it is.
type FocusIntent int

const NoFocusChange FocusIntent = -1

func focusAt(i int) FocusIntent { return FocusIntent(i) }

// Index returns the slot to focus and whether a move was requested.
func (f FocusIntent) Index() (int, bool) {
	if f < 0 {
		return 0, false
	}
	return int(f), true
}

// CodeEntry holds the six digit slots of one confirmation attempt. Every
// slot is either empty or a single ASCII digit. It is not safe for
// concurrent use; the owning flow or session serializes access.
type CodeEntry struct {
	digits [CodeLength]string
}

func NewCodeEntry() *CodeEntry { return &CodeEntry{} }

// SetDigit applies raw keyboard input to slot index. Empty input clears the
// slot. Anything other than exactly one ASCII digit is rejected and leaves
// the slot untouched. A digit typed into slots 0..4 moves focus forward.
func (c *CodeEntry) SetDigit(index int, raw string) (focus FocusIntent, accepted bool) {
	if index < 0 || index >= CodeLength {
		return NoFocusChange, false
	}
	if raw == "" {
		c.digits[index] = ""
		return NoFocusChange, true
	}
	if !isDigit(raw) {
		return NoFocusChange, false
	}
	c.digits[index] = raw
	if index < CodeLength-1 {
		return focusAt(index + 1), true
	}
	return NoFocusChange, true
}

// Backspace moves focus back only when slot index is already empty. It never
// changes slot contents.
func (c *CodeEntry) Backspace(index int) FocusIntent {
	if index <= 0 || index >= CodeLength {
		return NoFocusChange
	}
	if c.digits[index] != "" {
		return NoFocusChange
	}
	return focusAt(index - 1)
}

// Paste keeps the digits of raw, truncated to CodeLength, and refills the
// whole entry from slot 0 whatever startIndex was; the remaining slots are
// cleared. Focus lands on the slot after the last pasted digit, or on the
// last slot when the code is full.
func (c *CodeEntry) Paste(startIndex int, raw string) FocusIntent {
	var cleaned []string
	for i := 0; i < len(raw) && len(cleaned) < CodeLength; i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			cleaned = append(cleaned, raw[i:i+1])
		}
	}

	var next [CodeLength]string
	copy(next[:], cleaned)
	c.digits = next

	if len(cleaned) == 0 {
		return NoFocusChange
	}
	return focusAt(min(len(cleaned), CodeLength-1))
}

// Digits returns a copy of the six slots in order.
func (c *CodeEntry) Digits() []string {
	out := make([]string, CodeLength)
	copy(out, c.digits[:])
	return out
}

func (c *CodeEntry) FullCode() string { return strings.Join(c.digits[:], "") }

func (c *CodeEntry) IsComplete() bool { return len(c.FullCode()) == CodeLength }

func (c *CodeEntry) Reset() { c.digits = [CodeLength]string{} }

func isDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}
