package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/avolkov/sentigo/config"
	"github.com/avolkov/sentigo/internal/display"
)

func displayWelcomeBanner() {
	banner := `
 ███████╗███████╗███╗   ██╗████████╗██╗ ██████╗  ██████╗
 ██╔════╝██╔════╝████╗  ██║╚══██╔══╝██║██╔════╝ ██╔═══██╗
 ███████╗█████╗  ██╔██╗ ██║   ██║   ██║██║  ███╗██║   ██║
 ╚════██║██╔══╝  ██║╚██╗██║   ██║   ██║██║   ██║██║   ██║
 ███████║███████╗██║ ╚████║   ██║   ██║╚██████╔╝╚██████╔╝
 ╚══════╝╚══════╝╚═╝  ╚═══╝   ╚═╝   ╚═╝ ╚═════╝  ╚═════╝
`
	welcomeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7C3AED")).
		Bold(true)

	taglineStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3B82F6")).
		Italic(true)

	fmt.Print(welcomeStyle.Render(banner))
	fmt.Println(taglineStyle.Render("   Sentiment-fused stock trading signals"))
	fmt.Println()
}

// runInteractiveMode drives a prompt loop over the pipeline operations.
func runInteractiveMode(cfg *config.Config, debug bool) error {
	displayWelcomeBanner()

	a, err := newApp(cfg, debug)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()

	for {
		action, err := promptForAction()
		if err != nil {
			return err
		}
		if action == actionExit {
			display.Info("Goodbye!")
			return nil
		}

		ticker, err := promptForTicker()
		if err != nil {
			return err
		}

		switch action {
		case actionRecommend:
			rec, err := a.svc.Recommend(ctx, ticker)
			if err != nil {
				display.Error(err)
				continue
			}
			display.Recommendation(rec)

		case actionSentiment:
			to := time.Now().UTC()
			series, err := a.svc.HistoricalSentiment(ctx, ticker, to.AddDate(0, 0, -7), to)
			if err != nil {
				display.Error(err)
				continue
			}
			display.SentimentSeries(ticker, series)

		case actionBacktest:
			now := time.Now().UTC()
			start, err := promptForDate("Backtest start date:", now.AddDate(0, -6, 0))
			if err != nil {
				return err
			}
			end, err := promptForDate("Backtest end date:", now)
			if err != nil {
				return err
			}

			display.Info("Running backtest, this can take a while...")
			result, err := a.svc.RunBacktest(ctx, ticker, start, end)
			if err != nil {
				display.Error(err)
				continue
			}
			display.BacktestResult(result)
		}

		again, err := promptForConfirmation("Run another analysis?")
		if err != nil || !again {
			return err
		}
	}
}
