package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLineStripsDirectionalMarks(t *testing.T) {
	line := "‎[14/10/25, 09:00:00] ‏Alice: Zip #5 | 0:30⁩"
	assert.Equal(t, "[14/10/25, 09:00:00] Alice: Zip #5 | 0:30", NormalizeLine(line))
}

func TestNormalizeLineComposesNFC(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	assert.Equal(t, "Chloé", NormalizeLine("Chloé"))
}

func TestNormalizeLinePlainASCIIUnchanged(t *testing.T) {
	line := "[14/10/25, 09:00:00] Alice: Tango #1 | 0:45"
	assert.Equal(t, line, NormalizeLine(line))
}
