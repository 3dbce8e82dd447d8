package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette for ANSI 256 colors used across the CLI. These are
// the single source of truth; never use inline lipgloss.Color
// literals elsewhere.
var (
	// ColorCyan marks identifiable nouns: module and option names.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen marks active modules and assigned values.
	ColorGreen = lipgloss.Color("82")

	// ColorYellow marks required options that still need a value.
	ColorYellow = lipgloss.Color("220")

	// ColorRed marks failures and unavailable entries.
	ColorRed = lipgloss.Color("196")

	// ColorDimGray is used for structural chrome.
	ColorDimGray = lipgloss.Color("240")
)

// Semantic styles mapping domain concepts to presentation.
var (
	// StyleName styles module and option identifiers.
	StyleName = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleValue styles assigned option values.
	StyleValue = lipgloss.NewStyle().Foreground(ColorGreen)

	// StyleRequired styles the REQUIRED marker of unset options.
	StyleRequired = lipgloss.NewStyle().Bold(true).Foreground(ColorYellow)

	// StyleError styles failure markers.
	StyleError = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)

	// StyleDim styles separators, kind tags, and descriptions.
	StyleDim = lipgloss.NewStyle().Faint(true)
)
