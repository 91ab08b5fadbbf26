package whatsapp

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// WhatsApp exports sprinkle invisible bidirectional control characters
// around timestamps and sender names depending on the phone's locale.
// They break every regex downstream, so they are removed before matching.
var directionalMarks = map[rune]bool{
	'‎': true, // left-to-right mark
	'‏': true, // right-to-left mark
	'‪': true, // left-to-right embedding
	'‫': true, // right-to-left embedding
	'‬': true, // pop directional formatting
	'‭': true, // left-to-right override
	'‮': true, // right-to-left override
	'⁦': true, // left-to-right isolate
	'⁧': true, // right-to-left isolate
	'⁨': true, // first strong isolate
	'⁩': true, // pop directional isolate
}

// NormalizeLine strips directional control characters and canonically
// composes the rest (NFC). It never fails; the result may be empty.
func NormalizeLine(line string) string {
	cleaned := strings.Map(func(r rune) rune {
		if directionalMarks[r] {
			return -1
		}
		return r
	}, line)
	return norm.NFC.String(cleaned)
}
