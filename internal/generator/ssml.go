package generator

import (
	"fmt"
	"strings"
)

// Speed multiplier bounds. User-supplied speeds are clamped into this range
// before they are embedded in any markup or request body.
const (
	SpeedMin = 0.5
	SpeedMax = 2.0
)

// breakDuration is the pause inserted after designated phrases.
const breakDuration = "500ms"

// ClampSpeed normalizes a user-supplied speed multiplier. Zero means unset
// and maps to normal speed.
func ClampSpeed(speed float64) float64 {
	switch {
	case speed == 0:
		return 1.0
	case speed < SpeedMin:
		return SpeedMin
	case speed > SpeedMax:
		return SpeedMax
	default:
		return speed
	}
}

// needsSSML reports whether the request carries narration hints that
// require a markup envelope rather than plain text.
func needsSSML(req Request) bool {
	return len(req.Stress) > 0 || len(req.PauseAfter) > 0 || ClampSpeed(req.Speed) != 1.0
}

var ssmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// BuildSSML wraps the narration text in an SSML envelope: designated words
// get spoken emphasis, designated phrases get a pause after them, and the
// clamped speed multiplier becomes a prosody rate.
func BuildSSML(text string, stress, pauseAfter []string, speed float64) string {
	escaped := ssmlEscaper.Replace(text)

	for _, word := range stress {
		w := ssmlEscaper.Replace(word)
		if w == "" {
			continue
		}
		escaped = strings.ReplaceAll(escaped, w, `<emphasis level="strong">`+w+`</emphasis>`)
	}
	for _, phrase := range pauseAfter {
		p := ssmlEscaper.Replace(phrase)
		if p == "" {
			continue
		}
		escaped = strings.ReplaceAll(escaped, p, p+`<break time="`+breakDuration+`"/>`)
	}

	rate := ClampSpeed(speed)
	if rate != 1.0 {
		escaped = fmt.Sprintf(`<prosody rate="%d%%">%s</prosody>`, int(rate*100), escaped)
	}
	return "<speak>" + escaped + "</speak>"
}
