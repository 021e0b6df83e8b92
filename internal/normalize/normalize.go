// Package normalize rewrites spoken or informal course-name variants into
// their canonical handbook form.
//
// Speech-to-text output mangles module names in predictable ways: "ECTS" is
// spelled out letter by letter, numbered courses arrive as number words
// ("Machine Learning one"), and hyphens are spoken as "dash". Normalization
// happens in three ordered steps:
//
//  1. Mechanical cleanup: collapse spelled-out "E C T S", strip a trailing
//     "core"/"cores" qualifier, squeeze repeated whitespace, trim.
//  2. A fixed substitution table of known spoken phrases. A table hit returns
//     immediately so the numeric substitution below cannot corrupt a canonical
//     name that already contains digits.
//  3. Number-word and dash substitution ("five" → "5", "dash"/en-dash → "-").
//
// Normalize is deterministic and performs no I/O. It is NOT idempotent in
// general: the table short-circuit means a second application may take a
// different path, though for table outputs the result is stable.
package normalize

import (
	"regexp"
	"strings"
)

// substitution maps a spoken phrase (matched case-insensitively against the
// whole cleaned input) to the official module name.
type substitution struct {
	spoken   string
	official string
}

// substitutions is the known-phrase table, checked in order. Entries cover
// the module names that speech recognition garbles most often.
var substitutions = []substitution{
	{"Machine Learning Basic Methods", "Machine Learning - Basic Methods"},
	{"Machine Learning one Basic Methods", "Machine Learning - Basic Methods"},
	{"Machine Learning 1 Basic Methods", "Machine Learning - Basic Methods"},
	{"Machine Learning Fundamentals", "Machine Learning - Basic Methods"},

	{"Machine Learning one", "Machine Learning 1"},
	{"Machine Learning two", "Machine Learning 2"},
	{"Machine Learning 1", "Machine Learning 1"},
	{"Machine Learning 2", "Machine Learning 2"},

	{"Machine Learning for Robotic Systems one", "Machine Learning for Robotic Systems 1"},
	{"Machine Learning for Robotic Systems 1", "Machine Learning for Robotic Systems 1"},
	{"Machine Learning for Robotic Systems two", "Machine Learning for Robotic Systems 2"},
	{"Machine Learning for Robotic Systems 2", "Machine Learning for Robotic Systems 2"},
}

var (
	spelledECTS  = regexp.MustCompile(`(?i)E\s*C\s*T\s*S`)
	coreSuffix   = regexp.MustCompile(`(?i)\s+cores?\b`)
	multiSpace   = regexp.MustCompile(`\s{2,}`)
	spokenDash   = regexp.MustCompile(`(?i)dash`)
	numberWords  []numberWord
	numberTokens = []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}
)

type numberWord struct {
	re    *regexp.Regexp
	digit string
}

func init() {
	digits := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	for i, w := range numberTokens {
		numberWords = append(numberWords, numberWord{
			re:    regexp.MustCompile(`(?i)\b` + w + `\b`),
			digit: digits[i],
		})
	}
}

// Normalize rewrites raw into canonical form. Empty input yields empty
// output; the caller is responsible for rejecting empty names before use.
func Normalize(raw string) string {
	cleaned := spelledECTS.ReplaceAllString(raw, "ECTS")
	cleaned = coreSuffix.ReplaceAllString(cleaned, "")
	cleaned = multiSpace.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	for _, s := range substitutions {
		if strings.EqualFold(cleaned, s.spoken) {
			return s.official
		}
	}

	cleaned = Digits(cleaned)
	cleaned = spokenDash.ReplaceAllString(cleaned, "-")
	cleaned = strings.ReplaceAll(cleaned, "–", "-")

	return strings.TrimSpace(cleaned)
}

// Digits replaces the English number words one through ten with digit
// strings, matching on word boundaries case-insensitively. Exposed for the
// transcript extractor, which applies the same substitution before reading
// credit values out of phrases like "five ECTS".
func Digits(s string) string {
	for _, nw := range numberWords {
		s = nw.re.ReplaceAllString(s, nw.digit)
	}
	return s
}
