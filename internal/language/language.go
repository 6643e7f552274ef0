package language

import "strings"

type entry struct {
	code2 string
	code3 []string
	name  string
}

var languages = []entry{
	{"en", []string{"eng"}, "English"},
	{"es", []string{"spa"}, "Spanish"},
	{"fr", []string{"fra", "fre"}, "French"},
	{"de", []string{"deu", "ger"}, "German"},
	{"it", []string{"ita"}, "Italian"},
	{"pt", []string{"por"}, "Portuguese"},
	{"ja", []string{"jpn"}, "Japanese"},
	{"ko", []string{"kor"}, "Korean"},
	{"zh", []string{"zho", "chi"}, "Chinese"},
	{"ru", []string{"rus"}, "Russian"},
	{"ar", []string{"ara"}, "Arabic"},
	{"hi", []string{"hin"}, "Hindi"},
	{"nl", []string{"nld", "dut"}, "Dutch"},
	{"pl", []string{"pol"}, "Polish"},
	{"sv", []string{"swe"}, "Swedish"},
	{"da", []string{"dan"}, "Danish"},
	{"no", []string{"nor", "nob", "nno"}, "Norwegian"},
	{"fi", []string{"fin"}, "Finnish"},
	{"uk", []string{"ukr"}, "Ukrainian"},
	{"tr", []string{"tur"}, "Turkish"},
}

var index = func() map[string]*entry {
	m := make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		m[e.code2] = e
		m[strings.ToLower(e.name)] = e
		for _, c := range e.code3 {
			m[c] = e
		}
	}
	return m
}()

// Undetermined is the ffprobe tag for streams without a language.
const Undetermined = "und"

// Normalize returns the ISO 639-1 code for a language code, tag or English
// name. Region subtags ("en-US", "pt_BR") are dropped. Unknown two-letter
// codes pass through; anything else, including "und", yields "".
func Normalize(value string) string {
	value = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(value, "\x00", "")))
	if i := strings.IndexAny(value, "-_"); i > 0 {
		value = value[:i]
	}
	if value == "" || value == Undetermined {
		return ""
	}
	if e, ok := index[value]; ok {
		return e.code2
	}
	if len(value) == 2 {
		return value
	}
	return ""
}

// Matches reports whether two language values name the same language. Two
// unknown values never match.
func Matches(a, b string) bool {
	na := Normalize(a)
	return na != "" && na == Normalize(b)
}

// DisplayName returns a readable name for a language value, the upper-cased
// code when unknown, or "Unknown" when empty.
func DisplayName(value string) string {
	code := Normalize(value)
	if code == "" {
		return "Unknown"
	}
	if e, ok := index[code]; ok {
		return e.name
	}
	return strings.ToUpper(code)
}

// FromTags returns the language recorded in ffprobe stream tags, or "".
func FromTags(tags map[string]string) string {
	for _, key := range []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"} {
		if value, ok := tags[key]; ok {
			if code := Normalize(value); code != "" {
				return code
			}
		}
	}
	return ""
}
