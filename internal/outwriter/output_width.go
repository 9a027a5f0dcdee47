package outwriter

import (
	"os"

	"github.com/huangsam/popilot/internal/contract"
	"golang.org/x/term"
)

const (
	defaultTermWidth = 80 // Conservative default for narrow terminals and CI
	minTextWidth     = 15
	maxTextWidth     = 70
)

// terminalWidth returns cfg.Width when set, else the width of stdout.
func terminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return defaultTermWidth
	}
	return detectedWidth
}

// textWidth is the room left for a free text column (titles, paths)
// after reserved columns, borders and padding.
func textWidth(termWidth, reserved int) int {
	available := termWidth - reserved - 20
	return min(max(available, minTextWidth), maxTextWidth)
}
