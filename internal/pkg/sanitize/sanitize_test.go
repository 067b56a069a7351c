package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringStripsDangerousFragments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"script tag", `<script>alert(1)</script>`, "scriptalert(1)/script"},
		{"javascript scheme", `javascript:alert(1)`, "alert(1)"},
		{"mixed case scheme", `JaVaScRiPt :alert(1)`, "alert(1)"},
		{"vbscript scheme", `vbscript:msgbox`, "msgbox"},
		{"event handler", `<img src=x onmouseover=alert(1)>`, "img src=x alert(1)"},
		{"event handler spaced", `a ONCLICK  = "steal()"`, `a  "steal()"`},
		{"nested scheme", `javajavascript:script:alert(1)`, "alert(1)"},
		{"doubled handler prefix", `ononmouseover=x`, "x"},
		{"tab split scheme", "java\tscript:alert(1)", "alert(1)"},
		{"line break split scheme", "Java\r\nScript:alert(1)", "alert(1)"},
		{"split vbscript", "vb\ns\tcript:x", "x"},
		{"control char split scheme", "java\x00script:alert(1)", "alert(1)"},
		{"control chars dropped", "Acme\x07 Ltd\x7f", "Acme Ltd"},
		{"trims", "  Senior Accountant  ", "Senior Accountant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, String(tt.in))
		})
	}
}

func TestStringLeavesBenignTextAlone(t *testing.T) {
	for _, in := range []string{
		"Senior Accountant, $75k",
		"Conditions apply; position=remote",
		"Work on call = sometimes",
		"Java developer: Spring",
		"100% remote, 5 days on-site per year",
		"Line one\nLine two\tindented",
	} {
		assert.Equal(t, in, String(in))
	}
}

func TestStringIsIdempotent(t *testing.T) {
	inputs := []string{
		`<script>alert(1)</script>`,
		`javascript:alert(1)`,
		`<a href="javascript:alert(1)" onmouseover=x()>hi</a>`,
		`jav<ascript:ascript:`,
		`oonnclick==`,
		"java\tscript:alert(1)",
		"jav\x01ascript:",
		"  <<>>  ",
		"Senior Accountant, $75k",
		"",
	}
	for _, in := range inputs {
		once := String(in)
		assert.Equal(t, once, String(once), "input %q", in)
		assert.NotContains(t, once, "<")
		assert.NotContains(t, once, ">")
		assert.NotContains(t, strings.ToLower(once), "javascript:")
		assert.NotContains(t, strings.ToLower(once), "onmouseover=")
	}
}

func TestStrings(t *testing.T) {
	assert.Nil(t, Strings(nil))
	assert.Equal(t, []string{"go", "remote"}, Strings([]string{" go ", "<>", "remote"}))
}
