package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"foodflow-pickup/internal/domain/model"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

type Translator struct {
	lang         string
	translations map[string]string
}

// NewTranslator loads locales/<langCode>.yaml from fsys.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", fmt.Sprintf("%s.yaml", langCode))

	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	t, err := newTranslatorFromBytes(data)
	if err != nil {
		return nil, err
	}
	t.lang = langCode
	return t, nil
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

func (t *Translator) Lang() string { return t.lang }

func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Window renders the localized message of a window status. Only the states
// that quote a duration take the minutes argument.
func (t *Translator) Window(ws *model.WindowStatus) string {
	if ws == nil {
		return ""
	}
	switch ws.Status {
	case model.WindowTooEarly, model.WindowEarly, model.WindowLate:
		return t.T(ws.Status.MessageKey(), ws.Minutes)
	default:
		return t.T(ws.Status.MessageKey())
	}
}

// Outcome renders the user-visible message of a failed submission. A
// verification failure with a backend reason keeps that reason verbatim.
func (t *Translator) Outcome(o model.SubmissionOutcome, ws *model.WindowStatus) string {
	switch o.Kind {
	case model.OutcomeSuccess:
		return t.T("confirm.success")
	case model.OutcomeIncompleteCode:
		return t.T("confirm.incomplete_code")
	case model.OutcomeInvalidDonation:
		return t.T("confirm.invalid_donation")
	case model.OutcomeWindowClosed:
		if ws != nil {
			return t.Window(ws)
		}
		return o.Reason
	default:
		if o.Reason != "" && o.Reason != model.GenericVerificationFailure {
			return o.Reason
		}
		return t.T("confirm.verification_failed")
	}
}

// Bundle holds one Translator per supported language.
type Bundle struct {
	def   *Translator
	langs map[string]*Translator
}

func NewBundle(fsys fs.FS, defaultLang string, langs ...string) (*Bundle, error) {
	b := &Bundle{langs: map[string]*Translator{}}
	if len(langs) == 0 {
		langs = []string{defaultLang}
	}
	for _, l := range langs {
		tr, err := NewTranslator(fsys, l)
		if err != nil {
			return nil, err
		}
		b.langs[l] = tr
	}
	def, ok := b.langs[defaultLang]
	if !ok {
		return nil, fmt.Errorf("default language %q not loaded", defaultLang)
	}
	b.def = def
	return b, nil
}

// For picks the first supported language of an Accept-Language header,
// ignoring quality weights and regions.
func (b *Bundle) For(acceptLanguage string) *Translator {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		tag = strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if tr, ok := b.langs[tag]; ok {
			return tr
		}
	}
	return b.def
}
