// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/arbitrack/arbitrack/business/arbitrage/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("241"))

	coinStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	profitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// ConsoleReporter prints each completed scan cycle to the terminal.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a reporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// NewConsoleReporterWithWriter creates a reporter with a custom writer.
func NewConsoleReporterWithWriter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// Report renders one scan cycle.
func (r *ConsoleReporter) Report(result domain.ScanResult) {
	at := time.UnixMilli(result.Timestamp).Format("15:04:05")

	fmt.Fprintln(r.out, titleStyle.Render(
		fmt.Sprintf("Scan %s | %d exchanges | %d pairs | %d opportunities",
			at, result.ExchangeCount, result.ScannedPairs, len(result.Opportunities))))

	if len(result.Opportunities) == 0 {
		fmt.Fprintln(r.out, dimStyle.Render("  no spreads above threshold"))
		return
	}

	fmt.Fprintln(r.out, headerStyle.Render(fmt.Sprintf("  %-6s %-22s %-22s %8s %14s %14s",
		"COIN", "BUY (LOW)", "SELL (HIGH)", "PROFIT%", "MAX SIZE", "POTENTIAL")))

	for _, opp := range result.Opportunities {
		buy := fmt.Sprintf("%s @ %s", opp.LowestExchange, opp.LowestPrice.String())
		sell := fmt.Sprintf("%s @ %s", opp.HighestExchange, opp.HighestPrice.String())

		fmt.Fprintf(r.out, "  %s %-22s %-22s %s %14s %14s\n",
			coinStyle.Render(fmt.Sprintf("%-6s", opp.Coin)),
			buy,
			sell,
			profitStyle.Render(fmt.Sprintf("%7s%%", opp.ProfitPercentage.StringFixed(2))),
			opp.MaxTradeSize.StringFixed(2),
			opp.PotentialProfit.StringFixed(2))
	}
}
