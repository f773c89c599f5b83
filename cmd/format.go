package cmd

import (
	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer adds thousands separators to report numbers.
var printer = message.NewPrinter(language.English)

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
	label    = color.New(color.FgCyan).SprintFunc()
)

// formatBytes renders b in B, KB or MB, grouping thousands.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return printer.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return printer.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return printer.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
