//go:build !integration

package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func filled(digits ...string) *CodeEntry {
	c := NewCodeEntry()
	for i, d := range digits {
		c.digits[i] = d
	}
	return c
}

func TestCodeEntry_SetDigit(t *testing.T) {
	t.Run("should accept a digit and advance focus", func(t *testing.T) {
		c := NewCodeEntry()
		focus, ok := c.SetDigit(0, "7")
		if !ok {
			t.Fatal("expected digit to be accepted")
		}
		if idx, move := focus.Index(); !move || idx != 1 {
			t.Errorf("expected focus to move to 1, got %d (move=%v)", idx, move)
		}
		if c.Digits()[0] != "7" {
			t.Errorf("expected slot 0 to hold 7, got %q", c.Digits()[0])
		}
	})

	t.Run("should not advance past the last slot", func(t *testing.T) {
		c := NewCodeEntry()
		focus, ok := c.SetDigit(5, "9")
		if !ok {
			t.Fatal("expected digit to be accepted")
		}
		if focus != NoFocusChange {
			t.Errorf("expected no focus change, got %d", focus)
		}
	})

	t.Run("should reject non-digits without clearing", func(t *testing.T) {
		c := filled("3")
		for _, raw := range []string{"a", " ", "-", "é", "٣"} {
			if _, ok := c.SetDigit(0, raw); ok {
				t.Errorf("expected %q to be rejected", raw)
			}
		}
		if c.Digits()[0] != "3" {
			t.Errorf("expected slot 0 to still hold 3, got %q", c.Digits()[0])
		}
	})

	t.Run("should reject multi-character input entirely", func(t *testing.T) {
		c := NewCodeEntry()
		if _, ok := c.SetDigit(0, "12"); ok {
			t.Error("expected multi-digit input to be rejected")
		}
		if c.Digits()[0] != "" {
			t.Errorf("expected slot 0 to stay empty, got %q", c.Digits()[0])
		}
	})

	t.Run("should clear on empty input without moving focus", func(t *testing.T) {
		c := filled("1", "2")
		focus, ok := c.SetDigit(1, "")
		if !ok || focus != NoFocusChange {
			t.Errorf("expected clear accepted with no focus change, got ok=%v focus=%d", ok, focus)
		}
		if c.Digits()[1] != "" {
			t.Errorf("expected slot 1 cleared, got %q", c.Digits()[1])
		}
	})

	t.Run("should reject out of range indexes", func(t *testing.T) {
		c := NewCodeEntry()
		if _, ok := c.SetDigit(-1, "1"); ok {
			t.Error("expected index -1 to be rejected")
		}
		if _, ok := c.SetDigit(CodeLength, "1"); ok {
			t.Error("expected index 6 to be rejected")
		}
	})
}

func TestCodeEntry_Backspace(t *testing.T) {
	t.Run("should move back from an empty slot", func(t *testing.T) {
		c := filled("1", "2")
		if focus := c.Backspace(2); focus != 1 {
			t.Errorf("expected focus 1, got %d", focus)
		}
	})

	t.Run("should stay put while the slot holds a digit", func(t *testing.T) {
		c := filled("1", "2")
		if focus := c.Backspace(1); focus != NoFocusChange {
			t.Errorf("expected no focus change, got %d", focus)
		}
		if c.Digits()[1] != "2" {
			t.Error("expected backspace not to modify slot contents")
		}
	})

	t.Run("should stay put on the first slot", func(t *testing.T) {
		c := NewCodeEntry()
		if focus := c.Backspace(0); focus != NoFocusChange {
			t.Errorf("expected no focus change, got %d", focus)
		}
	})
}

func TestCodeEntry_Paste(t *testing.T) {
	testCases := []struct {
		name  string
		start int
		raw   string
		want  []string
		focus FocusIntent
	}{
		{"full code from first slot", 0, "123456", []string{"1", "2", "3", "4", "5", "6"}, 5},
		{"full code from a later slot", 3, "123456", []string{"1", "2", "3", "4", "5", "6"}, 5},
		{"strips non-digits and pads", 2, "12a34", []string{"1", "2", "3", "4", "", ""}, 4},
		{"truncates long input", 0, "12-34-56-78", []string{"1", "2", "3", "4", "5", "6"}, 5},
		{"no digits clears everything", 0, "abc", []string{"", "", "", "", "", ""}, NoFocusChange},
		{"ignores an out of range start", -4, "12", []string{"1", "2", "", "", "", ""}, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := filled("9", "9", "9", "9", "9", "9")
			focus := c.Paste(tc.start, tc.raw)
			if diff := cmp.Diff(tc.want, c.Digits()); diff != "" {
				t.Errorf("digits mismatch (-want +got):\n%s", diff)
			}
			if focus != tc.focus {
				t.Errorf("expected focus %d, got %d", tc.focus, focus)
			}
		})
	}

	t.Run("is idempotent", func(t *testing.T) {
		c := NewCodeEntry()
		c.Paste(1, "12a34")
		first := c.Digits()
		c.Paste(1, "12a34")
		if diff := cmp.Diff(first, c.Digits()); diff != "" {
			t.Errorf("second paste changed digits (-first +second):\n%s", diff)
		}
	})
}

func TestCodeEntry_Completeness(t *testing.T) {
	c := NewCodeEntry()
	for i := 0; i < CodeLength; i++ {
		if c.IsComplete() {
			t.Fatalf("expected incomplete with %d slots filled", i)
		}
		c.SetDigit(i, "1")
	}
	if !c.IsComplete() {
		t.Fatal("expected complete after filling all slots")
	}
	if c.FullCode() != "111111" {
		t.Errorf("expected 111111, got %s", c.FullCode())
	}

	c.SetDigit(3, "")
	if c.IsComplete() {
		t.Error("expected incomplete after clearing a middle slot")
	}
	c.Reset()
	if c.FullCode() != "" {
		t.Errorf("expected empty code after reset, got %q", c.FullCode())
	}
}
