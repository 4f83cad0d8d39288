package dialogue

import (
	"regexp"
	"strings"

	"frontdesk/models"
)

var (
	emailRegex  = regexp.MustCompile(`[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}(?:\.[a-z]{2,})?`)
	domainRegex = regexp.MustCompile(`[a-z0-9\-]+(?:\.[a-z0-9\-]+)+`)

	emailLeadInRegex   = regexp.MustCompile(`\b(?:my\s+email\s+is|email\s+address\s+is|email\s+is|the\s+email\s+is|it\s+is|it's)\b[:,. ]*`)
	trailingLocalRegex = regexp.MustCompile(`([a-z0-9._%+\-]{1,64})\s*at\s*$`)

	spokenTokenReplacements = []struct {
		pattern *regexp.Regexp
		repl    string
	}{
		{regexp.MustCompile(`\bunderscore\b`), "_"},
		{regexp.MustCompile(`\bhyphen\b`), "-"},
		{regexp.MustCompile(`\bdash\b`), "-"},
		{regexp.MustCompile(`\bperiod\b`), "."},
		{regexp.MustCompile(`\bdot\b`), "."},
		{regexp.MustCompile(`\bat\b`), "@"},
	}

	tightenAtRegex     = regexp.MustCompile(`\s*@\s*`)
	tightenDotRegex    = regexp.MustCompile(`\s*\.\s*`)
	afterAtSpaceRegex  = regexp.MustCompile(`@\s+`)
	aroundDotSpaceRe   = regexp.MustCompile(`\s+\.`)
	afterDotSpaceRegex = regexp.MustCompile(`\.\s+`)
)

// normalizeSpokenEmail converts spoken markers ("at", "dot",
// "underscore") to symbols and tidies the spacing around @ and dots,
// without gluing stray words into the local part.
func normalizeSpokenEmail(text string) string {
	t := strings.ToLower(text)
	t = emailLeadInRegex.ReplaceAllString(t, " ")

	for _, r := range spokenTokenReplacements {
		t = r.pattern.ReplaceAllString(t, r.repl)
	}

	t = tightenAtRegex.ReplaceAllString(t, "@")
	t = tightenDotRegex.ReplaceAllString(t, ".")
	t = afterAtSpaceRegex.ReplaceAllString(t, "@")
	t = aroundDotSpaceRe.ReplaceAllString(t, ".")
	t = afterDotSpaceRegex.ReplaceAllString(t, ".")

	return strings.TrimSpace(t)
}

// ValidEmail checks structural validity: one @, non-empty local part
// and domain, and at least one dot in the domain.
func ValidEmail(addr string) bool {
	parts := strings.Split(addr, "@")
	if len(parts) != 2 {
		return false
	}
	local, domain := parts[0], parts[1]
	if local == "" || domain == "" {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return true
}

// ExtractEmail pulls an address out of transcript text. It handles
// written forms ("it is ali@outlook.com"), spoken forms ("ali at
// gmail dot com") and the STT habit of dropping the @ entirely
// ("ali at highwaysindustry.com"). When several addresses survive
// normalization the last one wins, matching how callers correct
// themselves mid-sentence.
func ExtractEmail(text string) models.Extraction {
	t := normalizeSpokenEmail(text)

	if matches := emailRegex.FindAllString(t, -1); len(matches) > 0 {
		addr := matches[len(matches)-1]
		if ValidEmail(addr) {
			return models.Matched(addr)
		}
	}

	// Recover "<local> at <domain>" when no @ made it through.
	if loc := domainRegex.FindStringIndex(t); loc != nil {
		domain := t[loc[0]:loc[1]]
		left := t[:loc[0]]
		if m := trailingLocalRegex.FindStringSubmatch(left); m != nil {
			addr := m[1] + "@" + domain
			if ValidEmail(addr) {
				return models.Matched(addr)
			}
		}
	}

	return models.NotFound()
}
