package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

// languages lists the names users type or pick in the UI. Anything else
// falls back to x/text parsing.
var languages = []entry{
	{"en", "eng", "English", []string{"english"}},
	{"hi", "hin", "Hindi", []string{"hindi", "हिन्दी", "हिंदी"}},
	{"bn", "ben", "Bengali", []string{"bengali", "bangla"}},
	{"mr", "mar", "Marathi", []string{"marathi"}},
	{"ta", "tam", "Tamil", []string{"tamil"}},
	{"te", "tel", "Telugu", []string{"telugu"}},
	{"gu", "guj", "Gujarati", []string{"gujarati"}},
	{"pa", "pan", "Punjabi", []string{"punjabi"}},
	{"ur", "urd", "Urdu", []string{"urdu"}},
	{"ne", "nep", "Nepali", []string{"nepali"}},
	{"es", "spa", "Spanish", []string{"spanish"}},
	{"fr", "fra", "French", []string{"french"}},
	{"de", "deu", "German", []string{"german"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages))
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// parseBase returns the ISO 639-1 base of a BCP 47 tag such as "hi-IN" or
// "zh-CN", or "" when the tag does not parse.
func parseBase(code string) (language.Tag, string) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return language.Und, ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return language.Und, ""
	}
	return tag, base.String()
}

// ToISO2 converts a language code, BCP 47 tag or word to ISO 639-1.
// Returns empty string for unrecognized input.
func ToISO2(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if _, base := parseBase(code); base != "" && base != "und" {
		return base
	}
	return ""
}

// DisplayName returns a human-readable English language name.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	if tag, base := parseBase(code); base != "" && base != "und" {
		b, _ := tag.Base()
		if name := display.English.Languages().Name(b); name != "" {
			return name
		}
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// Equal reports whether two codes name the same base language, so "hi",
// "hin", "hi-IN" and "Hindi" all match.
func Equal(a, b string) bool {
	ia, ib := ToISO2(a), ToISO2(b)
	return ia != "" && ia == ib
}

// Choice is a selectable speech language.
type Choice struct {
	Code  string
	Label string
}

// SpeechChoices lists the languages offered for voice-cloned speech. Mixed
// English and Hindi scripts work with either choice.
func SpeechChoices() []Choice {
	return []Choice{
		{Code: "en", Label: "English"},
		{Code: "hi", Label: "Hindi"},
	}
}
