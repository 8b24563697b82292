// Package anonymize implements the best-effort redaction pass applied to
// text before it leaves the ingestion pipeline. It is a heuristic scrubber,
// not a guaranteed PII remover: the name pass both over- and under-redacts
// by construction and is kept that way for compatibility.
package anonymize

import (
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
)

// Redaction tokens.
const (
	ExpressionToken = "XXX"
	EmailToken      = "[EMAIL]"
	PhoneToken      = "[PHONE]"
	NameToken       = "[NAME]"
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// International, French-style grouped, and North-American phone shapes,
	// applied in order over the already-partially-redacted text.
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\+?[0-9]{1,4}[-. ]?\(?[0-9]{1,3}\)?[-. ]?[0-9]{1,4}[-. ]?[0-9]{1,4}\b`),
		regexp.MustCompile(`\b0[1-9]([-. ]?[0-9]{2}){4}\b`),
		regexp.MustCompile(`\b[0-9]{3}[-.]?[0-9]{3}[-.]?[0-9]{4}\b`),
	}
)

// Anonymizer holds the compiled country allow-list for the name pass.
type Anonymizer struct {
	countries *regexp.Regexp
}

// New builds an Anonymizer from a comma-separated country allow-list.
// Words matching the allow-list survive the name-redaction pass.
func New(countries string) *Anonymizer {
	var parts []string
	for _, c := range strings.Split(countries, ",") {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, `\b`+regexp.QuoteMeta(c)+`\b`)
		}
	}
	a := &Anonymizer{}
	if len(parts) > 0 {
		a.countries = regexp.MustCompile(strings.Join(parts, "|"))
	}
	return a
}

// Anonymize runs the deterministic redaction passes in order: configured
// expressions, emails, phone numbers, then the capitalized-word name
// heuristic. Each pass works on the output of the previous one.
func (a *Anonymizer) Anonymize(text string, expressions []string) string {
	text = ReplaceExpressions(text, expressions)

	text = emailPattern.ReplaceAllString(text, EmailToken)
	for _, pat := range phonePatterns {
		text = pat.ReplaceAllString(text, PhoneToken)
	}

	sentences := strings.Split(text, ". ")
	for i, sentence := range sentences {
		words := strings.Fields(sentence)
		for j, w := range words {
			if j == 0 || len(w) < 2 {
				continue
			}
			if !startsUpper(w) || isAllUpper(w) {
				continue
			}
			if a.countries != nil && a.countries.MatchString(w) {
				continue
			}
			words[j] = NameToken
		}
		sentences[i] = strings.Join(words, " ")
	}
	return strings.Join(sentences, ". ")
}

// ReplaceExpressions substitutes each configured expression,
// case-insensitively, with the fixed redaction token. This is the only pass
// applied to email bodies.
func ReplaceExpressions(text string, expressions []string) string {
	for _, expr := range expressions {
		pat := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(expr))
		text = pat.ReplaceAllString(text, ExpressionToken)
	}
	return text
}

// LoadExpressions reads the semicolon-separated expressions file. A missing
// file degrades to a no-op anonymization pass with a warning.
func LoadExpressions(path string) []string {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("expressions file not readable, anonymization runs without expressions")
		return nil
	}
	return ParseExpressions(string(data))
}

// ParseExpressions splits a semicolon-separated expression list, dropping
// empty entries.
func ParseExpressions(raw string) []string {
	var out []string
	for _, e := range strings.Split(raw, ";") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

func startsUpper(w string) bool {
	for _, r := range w {
		return unicode.IsUpper(r)
	}
	return false
}

func isAllUpper(w string) bool {
	for _, r := range w {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
