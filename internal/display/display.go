// Package display renders signals, sentiment series and backtest results
// for the terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/avolkov/sentigo/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2).
			Width(78)

	buyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	sellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	holdStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))
)

func signalStyle(t models.SignalType) lipgloss.Style {
	switch t {
	case models.SignalBuy:
		return buyStyle
	case models.SignalSell:
		return sellStyle
	default:
		return holdStyle
	}
}

// Recommendation renders a trading signal with its contributing scores.
func Recommendation(rec *models.Recommendation) {
	sig := rec.Signal
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Signal:      %s\n", signalStyle(sig.Type).Render(strings.ToUpper(string(sig.Type)))))
	b.WriteString(fmt.Sprintf("Confidence:  %.0f%%\n", sig.Confidence*100))
	b.WriteString(fmt.Sprintf("Sentiment:   %+.3f  (%d mentions)\n", sig.Scores.Sentiment, sig.Scores.MentionCount))
	b.WriteString(fmt.Sprintf("Technical:   %+.3f\n", sig.Scores.Technical))
	b.WriteString(fmt.Sprintf("Composite:   %+.3f\n\n", sig.Scores.Composite))
	b.WriteString(sig.Reasoning)

	if row := rec.Indicator; row != nil {
		b.WriteString("\n\n" + dimStyle.Render(indicatorLine(row)))
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Recommendation: %s", rec.Ticker)))
	fmt.Println(boxStyle.Render(b.String()))
}

func indicatorLine(row *models.IndicatorRow) string {
	parts := []string{fmt.Sprintf("close %.2f", row.Close)}
	if row.RSI != nil {
		parts = append(parts, fmt.Sprintf("rsi %.1f", *row.RSI))
	}
	if row.SMAFast != nil {
		parts = append(parts, fmt.Sprintf("sma fast %.2f", *row.SMAFast))
	}
	if row.SMASlow != nil {
		parts = append(parts, fmt.Sprintf("sma slow %.2f", *row.SMASlow))
	}
	if row.Momentum != nil {
		parts = append(parts, fmt.Sprintf("mom %+.2f%%", *row.Momentum))
	}
	return strings.Join(parts, " | ")
}

// SentimentSeries renders a daily sentiment table.
func SentimentSeries(ticker string, series []models.DailySentiment) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("Sentiment: %s", ticker)))

	if len(series) == 0 {
		fmt.Println(dimStyle.Render("  no mentions found in range"))
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-12s %10s %10s   %s\n", "DATE", "SCORE", "MENTIONS", "TREND"))
	for _, day := range series {
		b.WriteString(fmt.Sprintf("%-12s %+10.3f %10d   %s\n",
			day.Date.Format("2006-01-02"),
			day.AvgSentimentScore,
			day.MentionCount,
			sentimentBar(day.AvgSentimentScore),
		))
	}
	fmt.Println(boxStyle.Render(b.String()))
}

// sentimentBar draws a fixed-width bar centered on zero.
func sentimentBar(score float64) string {
	const half = 10
	filled := int(score * half)
	if filled > half {
		filled = half
	}
	if filled < -half {
		filled = -half
	}
	left := strings.Repeat(" ", half+min(filled, 0)) + strings.Repeat("█", -min(filled, 0))
	right := strings.Repeat("█", max(filled, 0))
	bar := left + "|" + right
	if score < 0 {
		return sellStyle.Render(bar)
	}
	if score > 0 {
		return buyStyle.Render(bar)
	}
	return dimStyle.Render(bar)
}

// BacktestResult renders the summary metrics and trade log of a run.
func BacktestResult(result *models.BacktestResult) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("Backtest: %s  %s → %s",
		result.Ticker,
		result.StartDate.Format("2006-01-02"),
		result.EndDate.Format("2006-01-02"))))

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Initial capital:   $%.2f\n", result.InitialCapital))
	b.WriteString(fmt.Sprintf("Final value:       $%.2f\n", result.FinalValue))
	b.WriteString(fmt.Sprintf("Total return:      %s\n", pctStyle(result.TotalReturn)))
	if result.SharpeRatio != nil {
		b.WriteString(fmt.Sprintf("Sharpe ratio:      %.2f\n", *result.SharpeRatio))
	} else {
		b.WriteString("Sharpe ratio:      n/a\n")
	}
	b.WriteString(fmt.Sprintf("Max drawdown:      %.2f%%\n", result.MaxDrawdown))
	b.WriteString(fmt.Sprintf("Win rate:          %.1f%%\n", result.WinRate))
	b.WriteString(fmt.Sprintf("S&P 500 return:    %s\n", pctStyle(result.SP500Return)))
	b.WriteString(fmt.Sprintf("vs S&P 500:        %s\n", pctStyle(result.VsSP500Performance)))
	b.WriteString(fmt.Sprintf("Trades:            %d\n", result.TotalTrades))

	if len(result.Trades) > 0 {
		b.WriteString("\nTRADE LOG\n")
		for _, trade := range result.Trades {
			b.WriteString(fmt.Sprintf("  %s  %s %6d @ $%.2f\n",
				trade.Date.Format("2006-01-02"),
				signalStyle(trade.Type).Render(fmt.Sprintf("%-4s", strings.ToUpper(string(trade.Type)))),
				trade.Shares,
				trade.Price,
			))
		}
	}

	fmt.Println(boxStyle.Render(b.String()))
}

func pctStyle(pct float64) string {
	text := fmt.Sprintf("%+.2f%%", pct)
	if pct > 0 {
		return buyStyle.Render(text)
	}
	if pct < 0 {
		return sellStyle.Render(text)
	}
	return text
}

// Error prints an error line.
func Error(err error) {
	fmt.Println(errorStyle.Render(fmt.Sprintf("✗ %s", err.Error())))
}

// Info prints an informational line.
func Info(message string) {
	fmt.Println(infoStyle.Render(message))
}

// Success prints a success line.
func Success(message string) {
	fmt.Println(buyStyle.Render(fmt.Sprintf("✓ %s", message)))
}
