package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
)

// Color variables for console output.
var (
	OnTrackColor  = color.New(color.FgGreen)             // work kept up with capacity
	BehindColor   = color.New(color.FgRed)               // work fell behind capacity
	DayOffColor   = color.New(color.FgHiBlack)           // day off
	HeadlineColor = color.New(color.FgWhite, color.Bold) // sprint and group headlines
)

// KeepsUpWith reports whether a work delta matched the capacity of a day.
// Completed work keeps up when delta >= capacity. With inverse set,
// burned-down remaining work keeps up when -delta >= capacity.
func KeepsUpWith(delta float64, capacity *float64, inverse bool) bool {
	c := 0.0
	if capacity != nil {
		c = *capacity
	}
	if inverse {
		return -delta >= c
	}
	return delta >= c
}

// ColorAgainst colors text green when the work kept up and red otherwise.
func ColorAgainst(text string, keptUp bool) string {
	if keptUp {
		return OnTrackColor.Sprint(text)
	}
	return BehindColor.Sprint(text)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout for an empty path.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// SplitList splits a comma (or ampersand) separated list and drops blank entries.
func SplitList(s string) []string {
	var out []string
	for part := range strings.FieldsFuncSeq(s, func(r rune) bool { return r == ',' || r == '&' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	log.Fatal().Err(err).Msg(msg)
}

// LogWarn logs a warning.
func LogWarn(msg string, err error) {
	log.Warn().Err(err).Msg(msg)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".popilot_cache.db"
	}
	return filepath.Join(homeDir, ".popilot_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for velocity history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".popilot_history.db"
	}
	return filepath.Join(homeDir, ".popilot_history.db")
}

// Truncate shortens text to maxWidth runes with an ellipsis suffix.
// Requires maxWidth > 3 so the ellipsis leaves room for content.
func Truncate(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
