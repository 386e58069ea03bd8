package language

import "strings"

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"vi", "vie", "", "Vietnamese", []string{"vietnamese"}},
	{"en", "eng", "", "English", []string{"english"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"th", "tha", "", "Thai", []string{"thai"}},
	{"km", "khm", "", "Khmer", []string{"khmer"}},
}

// captionSuffixCodes are the language tokens recognized between a caption's
// title and its extension ("Talk.vi.vtt"). "jp" is not ISO but appears in
// real downloads.
var captionSuffixCodes = map[string]struct{}{
	"vi": {}, "en": {}, "fr": {}, "de": {}, "zh": {}, "jp": {}, "ja": {},
	"ko": {}, "ru": {}, "es": {}, "pt": {}, "it": {}, "hi": {},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
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

// IsCaptionSuffix reports whether code is one of the fixed language tokens
// recognized as a caption filename suffix.
func IsCaptionSuffix(code string) bool {
	_, ok := captionSuffixCodes[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

// CaptionSuffixCodes returns the recognized caption suffix tokens.
func CaptionSuffixCodes() []string {
	out := make([]string, 0, len(captionSuffixCodes))
	for code := range captionSuffixCodes {
		out = append(out, code)
	}
	return out
}

// ToISO2 converts any recognized language code or word to ISO 639-1 (2-letter).
// Returns empty string for unrecognized input.
// If the input is already a 2-letter code (even if unknown), it passes through.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if strings.EqualFold(strings.TrimSpace(code), None) {
		return "No language suffix"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeList deduplicates and normalizes a list of language codes to ISO 639-1.
// Codes with a region ("en-US") are kept as given, lowercased.
func NormalizeList(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		trimmed := strings.ToLower(strings.TrimSpace(code))
		if trimmed == "" {
			continue
		}
		if len(trimmed) > 2 && !strings.Contains(trimmed, "-") {
			if mapped := ToISO2(trimmed); mapped != "" {
				trimmed = mapped
			}
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized
}
