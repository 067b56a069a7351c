// Package sanitize strips markup-bearing fragments from free text before it is
// stored. It does not replace output encoding when the text is rendered.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	angleBrackets = strings.NewReplacer("<", "", ">", "")
	// C0 controls and DEL, except tab, LF and CR which free text may carry
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	scriptScheme = schemePattern("javascript", "vbscript")
	eventHandler = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// schemePattern matches any of the URI schemes followed by a colon. Browsers
// drop tab, LF and CR anywhere in a URL, so they may split the scheme.
func schemePattern(schemes ...string) *regexp.Regexp {
	const gap = `[\t\n\r]*`
	alts := make([]string, len(schemes))
	for i, scheme := range schemes {
		letters := strings.Split(scheme, "")
		alts[i] = strings.Join(letters, gap)
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)\s*:`)
}

// String trims raw and removes control characters, angle brackets, script URI
// schemes and inline event handler attributes. It repeats until nothing
// changes, so removing one fragment can never assemble another and
// String(String(x)) == String(x).
func String(raw string) string {
	s := raw
	for {
		next := controlChars.ReplaceAllString(s, "")
		next = strings.TrimSpace(next)
		next = angleBrackets.Replace(next)
		next = scriptScheme.ReplaceAllString(next, "")
		next = eventHandler.ReplaceAllString(next, "")
		if next == s {
			return next
		}
		s = next
	}
}

// Strings sanitizes every element and drops the ones left empty.
func Strings(raw []string) []string {
	if raw == nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v = String(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
