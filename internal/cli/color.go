package cli

import (
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	// Green applies green color to output.
	Green = color.New(color.FgGreen).SprintFunc()
	// Red applies red color to output.
	Red = color.New(color.FgRed).SprintFunc()
	// Yellow applies yellow color to output.
	Yellow = color.New(color.FgYellow).SprintFunc()
	// Cyan applies cyan color to output.
	Cyan = color.New(color.FgCyan).SprintFunc()
	// Gray applies gray color to output.
	Gray = color.New(color.FgHiBlack).SprintFunc()

	// Bold applies bold style to output.
	Bold = color.New(color.Bold).SprintFunc()
	// BoldRed applies bold red color to output.
	BoldRed = color.New(color.FgRed, color.Bold).SprintFunc()
)

// ColorConfig controls color output behavior.
type ColorConfig struct {
	Enabled    bool
	ForceColor bool
	NoColor    bool
}

// DefaultColorConfig enables colors when w is a terminal, honouring the
// NO_COLOR and FORCE_COLOR conventions.
func DefaultColorConfig(w io.Writer) ColorConfig {
	return ColorConfig{
		Enabled:    isTerminal(w),
		ForceColor: os.Getenv("FORCE_COLOR") != "" || os.Getenv("CLICOLOR_FORCE") != "",
		NoColor:    os.Getenv("NO_COLOR") != "" || os.Getenv("CLICOLOR") == "0",
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

// ConfigureColors applies config to the global color settings.
func ConfigureColors(config ColorConfig) {
	switch {
	case config.NoColor:
		color.NoColor = true
	case config.ForceColor:
		color.NoColor = false
	default:
		color.NoColor = !config.Enabled
	}
}

// Colorize applies colorFunc to s if colors are enabled.
func Colorize(colorFunc func(...any) string, s string) string {
	if color.NoColor {
		return s
	}

	return colorFunc(s)
}
