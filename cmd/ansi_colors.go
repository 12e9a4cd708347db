package cmd

// ANSI escape codes for terminal coloring.
const (
	ansiReset     = "\033[0m"
	ansiRed       = "\033[31m"
	ansiGreen     = "\033[32m"
	ansiYellow    = "\033[33m"
	ansiDarkGray  = "\033[90m"
	ansiLightBlue = "\033[94m"
)
