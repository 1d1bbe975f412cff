package client

import (
	"fmt"
	"strings"

	"pixgate/internal/constants"
)

const (
	ColorReset  = constants.ColorReset
	ColorBold   = constants.ColorBold
	ColorDim    = constants.ColorDim
	ColorCyan   = constants.ColorCyan
	ColorGreen  = constants.ColorGreen
	ColorYellow = constants.ColorYellow
	ColorRed    = constants.ColorRed
)

func PrintBanner() {
	fmt.Println()
	fmt.Printf("  %s%spixgate%s %sv%s%s\n", ColorBold, ColorCyan, ColorReset, ColorBold, constants.Version, ColorReset)
	fmt.Printf("  %sPick the right pictures, then say something%s\n", ColorDim, ColorReset)
	fmt.Println()
}

func PrintHint(text string) {
	fmt.Printf("  %s%s%s\n", ColorDim, text, ColorReset)
}

func PrintStep(text string) {
	fmt.Printf("  %s%s▸%s %s\n", ColorBold, ColorCyan, ColorReset, text)
}

func PrintField(label, value, valueColor string) {
	fmt.Printf("  %s%-12s%s %s%s%s\n", ColorDim, label, ColorReset, valueColor, value, ColorReset)
}

func PrintSep() {
	fmt.Printf("  %s%s%s\n", ColorDim, strings.Repeat("─", 50), ColorReset)
}
