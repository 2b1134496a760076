//go:build !integration

package i18n

import (
	"testing"
	"testing/fstest"
	"time"

	"foodflow-pickup/internal/domain/model"
)

func TestTranslator(t *testing.T) {
	translator, err := newTranslatorFromBytes([]byte("greeting: Bonjour\nwelcome_user: Bonjour %s"))
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		if got, want := translator.T("greeting"), "Bonjour"; got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got, want := translator.T("nonexistent_key"), "nonexistent_key"; got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got, want := translator.T("welcome_user", "Ada"), "Bonjour Ada"; got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})
}

func TestEmbeddedLocalesMatchEvaluator(t *testing.T) {
	tr, err := NewTranslator(LocalesFS, "en")
	if err != nil {
		t.Fatalf("NewTranslator failed: %v", err)
	}
	slot := &model.PickupSlot{PickupDate: "2025-10-19", StartTime: "14:00", EndTime: "17:00"}
	policy := &model.TolerancePolicy{EarlyToleranceMinutes: 15, LateToleranceMinutes: 10}

	for _, hhmm := range []string{"13:40", "13:50", "15:00", "17:05", "17:15"} {
		now, _ := time.ParseInLocation("2006-01-02 15:04", "2025-10-19 "+hhmm, time.UTC)
		ws, err := model.EvaluateWindow(now, slot, policy, time.UTC)
		if err != nil {
			t.Fatalf("EvaluateWindow failed: %v", err)
		}
		if got := tr.Window(ws); got != ws.Message {
			t.Errorf("%s: wanted '%s', got '%s'", hhmm, ws.Message, got)
		}
	}
}

func TestEmbeddedLocalesHaveSameKeys(t *testing.T) {
	en, err := NewTranslator(LocalesFS, "en")
	if err != nil {
		t.Fatalf("NewTranslator(en) failed: %v", err)
	}
	fr, err := NewTranslator(LocalesFS, "fr")
	if err != nil {
		t.Fatalf("NewTranslator(fr) failed: %v", err)
	}
	for k := range en.translations {
		if _, ok := fr.translations[k]; !ok {
			t.Errorf("fr is missing key %s", k)
		}
	}
}

func TestTranslator_Outcome(t *testing.T) {
	tr, _ := NewTranslator(LocalesFS, "en")
	cases := []struct {
		name string
		in   model.SubmissionOutcome
		want string
	}{
		{"incomplete", model.SubmissionOutcome{Kind: model.OutcomeIncompleteCode}, "Please enter the full 6-digit code."},
		{"backend reason", model.SubmissionOutcome{Kind: model.OutcomeVerificationFailed, Reason: "Invalid pickup code"}, "Invalid pickup code"},
		{"generic", model.SubmissionOutcome{Kind: model.OutcomeVerificationFailed, Reason: model.GenericVerificationFailure}, model.GenericVerificationFailure},
		{"window without status", model.SubmissionOutcome{Kind: model.OutcomeWindowClosed, Reason: "closed"}, "closed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tr.Outcome(tc.in, nil); got != tc.want {
				t.Errorf("wanted '%s', got '%s'", tc.want, got)
			}
		})
	}
}

func TestBundle_For(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.yaml": {Data: []byte("hello: Hello")},
		"locales/fr.yaml": {Data: []byte("hello: Bonjour")},
	}
	b, err := NewBundle(fsys, "en", "en", "fr")
	if err != nil {
		t.Fatalf("NewBundle failed: %v", err)
	}
	cases := map[string]string{
		"":                        "Hello",
		"fr-CA,fr;q=0.9,en;q=0.8": "Bonjour",
		"de-DE, en;q=0.5":         "Hello",
		"es":                      "Hello",
	}
	for header, want := range cases {
		if got := b.For(header).T("hello"); got != want {
			t.Errorf("header %q: wanted '%s', got '%s'", header, want, got)
		}
	}

	if _, err := NewBundle(fsys, "de", "en"); err == nil {
		t.Error("expected error when the default language is not loaded")
	}
}
