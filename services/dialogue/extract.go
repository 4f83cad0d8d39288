package dialogue

import (
	"regexp"
	"strings"
	"time"

	"frontdesk/models"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// normalizeText collapses whitespace and trims a raw transcript.
func normalizeText(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

var affirmativePhrases = []string{
	"that's right", "that is right", "please do", "go ahead", "sounds good",
}

var affirmativeWords = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "yup": true, "correct": true,
	"confirm": true, "sure": true, "absolutely": true, "right": true,
}

var negativePhrases = []string{
	"that's wrong", "that is wrong", "not right", "do not", "start over", "change",
}

var negativeWords = map[string]bool{
	"no": true, "nope": true, "nah": true, "incorrect": true, "wrong": true, "don't": true,
}

var fillerSet = map[string]bool{
	"ok": true, "okay": true, "okay thanks": true, "thanks": true,
	"thank you": true, "alright": true, "hmm": true, "mm": true, "mmm": true,
	"uh": true, "um": true, "please continue": true, "go on": true,
}

var wordSplitRegex = regexp.MustCompile(`[^a-z']+`)

func words(text string) []string {
	return wordSplitRegex.Split(strings.ToLower(text), -1)
}

// isAffirmative matches assent on whole words, not substrings, so
// "know" does not read as "no" and "yesterday" not as "yes".
func isAffirmative(text string) bool {
	t := strings.ToLower(text)
	for _, p := range affirmativePhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	for _, w := range words(t) {
		if affirmativeWords[w] {
			return true
		}
	}
	return false
}

func isNegative(text string) bool {
	t := strings.ToLower(text)
	for _, p := range negativePhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	for _, w := range words(t) {
		if negativeWords[w] {
			return true
		}
	}
	return false
}

func isFiller(text string) bool {
	return fillerSet[strings.ToLower(strings.TrimSpace(text))]
}

// ExtractContext carries the turn-scoped inputs extractors may use.
// Now is the session's reference date, fixed at session start so
// relative expressions resolve the same on every retry.
type ExtractContext struct {
	Now       time.Time
	Expecting models.FieldName
}

// Extract runs the rule-based extractor for one field over a turn.
// Stateless and deterministic for identical input.
func Extract(field models.FieldName, text string, ectx ExtractContext) models.Extraction {
	if normalizeText(text) == "" {
		return models.NotFound()
	}
	switch field {
	case models.FieldEmail:
		return ExtractEmail(text)
	case models.FieldDateTime:
		return ExtractDateTime(text, ectx.Now)
	case models.FieldCallerName:
		return ExtractName(text, ectx.Expecting == models.FieldCallerName)
	default:
		return ExtractReason(text)
	}
}

var nameTriggerRegex = regexp.MustCompile(`(?i)(?:my name is|name is|i am|i'm|this is|it is|it's)\s+([a-zA-Z][a-zA-Z\s\-'.]+)`)
var alphaTokenRegex = regexp.MustCompile(`^[a-zA-Z\-'.]+$`)

// ExtractName is a light heuristic: a trigger phrase followed by word
// tokens, or a short standalone utterance when a name is what the
// dialogue is waiting for. Low confidence by design.
func ExtractName(text string, expectName bool) models.Extraction {
	t := normalizeText(text)
	if m := nameTriggerRegex.FindStringSubmatch(t); m != nil {
		name := titleCase(normalizeText(m[1]))
		if name != "" {
			return models.Matched(name)
		}
	}
	if !expectName {
		return models.NotFound()
	}
	tokens := strings.Fields(t)
	if len(tokens) == 0 || len(tokens) > 4 {
		return models.NotFound()
	}
	for _, tok := range tokens {
		if !alphaTokenRegex.MatchString(tok) {
			return models.NotFound()
		}
	}
	return models.Matched(titleCase(t))
}

var reasonTriggerRegex = regexp.MustCompile(`(?i)(?:because of|because|for|regarding|about)\s+([a-zA-Z0-9][a-zA-Z0-9\s\-,'.]{2,})`)

// ExtractReason is a free-text passthrough with light trimming; a
// lead-in like "it's for a general checkup" is stripped when present.
func ExtractReason(text string) models.Extraction {
	t := normalizeText(text)
	if t == "" {
		return models.NotFound()
	}
	if m := reasonTriggerRegex.FindStringSubmatch(t); m != nil {
		return models.Matched(strings.TrimRight(normalizeText(m[1]), " .,"))
	}
	return models.Matched(strings.TrimRight(t, " .,"))
}

func titleCase(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	for i, f := range fields {
		fields[i] = strings.ToUpper(f[:1]) + f[1:]
	}
	return strings.Join(fields, " ")
}
