package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pkgrepo/pkg/resolve"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
	styleBorder = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// =============================================================================
// Resolution Output
// =============================================================================

// printResult writes the resolved packages as a table, followed by the
// unavailable packages and the renames.
func printResult(w io.Writer, repoURL string, res *resolve.Result) {
	fmt.Fprintln(w, StyleTitle.Render(repoURL))

	pkgs := res.Sorted()
	if len(pkgs) == 0 {
		fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+StyleDim.Render("no package installs on this target"))
	} else {
		fmt.Fprintln(w, packageTable(pkgs))
	}

	fmt.Fprintln(w, "  "+StyleDim.Render(summary(res)))

	if len(res.Unavailable) > 0 {
		fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render("unavailable: ")+
			StyleValue.Render(strings.Join(res.Unavailable, ", ")))
	}

	if len(res.Renamed) > 0 {
		old := make([]string, 0, len(res.Renamed))
		for name := range res.Renamed {
			old = append(old, name)
		}
		sort.Strings(old)
		fmt.Fprintln(w, StyleDim.Render("renamed:"))
		for _, name := range old {
			fmt.Fprintln(w, "  "+StyleDim.Render(name)+" "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(res.Renamed[name]))
		}
	}
}

func packageTable(pkgs []resolve.ResolvedPackage) string {
	rows := make([][]string, len(pkgs))
	for i, p := range pkgs {
		rows[i] = []string{
			p.Name,
			orDash(p.Download.Version),
			strings.Join(p.Download.Platforms, ","),
			orDash(p.Download.Date),
			p.Download.URL,
		}
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleBorder).
		Headers("PACKAGE", "VERSION", "PLATFORMS", "DATE", "URL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == 1:
				return styleCell.Foreground(colorCyan)
			case col == 4:
				return styleCell.Foreground(colorBlue)
			default:
				return styleCell
			}
		}).
		String()
}

func summary(res *resolve.Result) string {
	parts := []string{fmt.Sprintf("%d packages", len(res.Packages))}
	if n := len(res.Unavailable); n > 0 {
		parts = append(parts, fmt.Sprintf("%d unavailable", n))
	}
	if n := len(res.Renamed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d renamed", n))
	}
	return strings.Join(parts, " · ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
