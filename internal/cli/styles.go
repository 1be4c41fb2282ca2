// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ymatsuda/cashpoint/internal/ledger"
	"github.com/ymatsuda/cashpoint/internal/model"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#5FAFD7")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(PrimaryColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatTitle formats a section title.
func FormatTitle(title string) string {
	return TitleStyle.Render(title)
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}

// StyleStatus colors a transaction status for display.
func StyleStatus(status model.Status) string {
	switch status {
	case model.StatusCompleted:
		return SuccessStyle.Render(string(status))
	case model.StatusFailed:
		return ErrorStyle.Render(string(status))
	default:
		return WarningStyle.Render(string(status))
	}
}

// RenderTransactionTable formats records as an aligned table, one row per
// record, in the given order.
func RenderTransactionTable(records []model.TransactionRecord) string {
	if len(records) == 0 {
		return SubtleStyle.Render("no transactions recorded")
	}

	var b strings.Builder
	header := fmt.Sprintf("%-19s  %-12s  %-20s  %-12s  %10s  %-36s  %s",
		"TIMESTAMP", "OPERATOR", "PAYEE", "CATEGORY", "AMOUNT", "TRANSACTION ID", "STATUS")
	b.WriteString(TableHeaderStyle.Render(header))
	b.WriteString("\n")

	for _, r := range records {
		b.WriteString(fmt.Sprintf("%-19s  %-12s  %-20s  %-12s  %10d  %-36s  %s\n",
			r.Timestamp.Format(ledger.TimestampLayout),
			truncate(r.Operator, 12),
			truncate(r.Payee, 20),
			truncate(r.AccountCategory, 12),
			r.Amount,
			r.TransactionID,
			StyleStatus(r.Status)))
	}

	return b.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
