package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.^-]+$`)

// promptForTicker asks for a stock ticker symbol.
func promptForTicker() (string, error) {
	var ticker string
	prompt := &survey.Input{
		Message: "Enter the stock ticker symbol (e.g., AAPL, MSFT, GOOGL):",
		Help:    "A valid exchange ticker symbol",
	}

	err := survey.AskOne(prompt, &ticker, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(strings.ToUpper(val.(string)))
		if len(str) == 0 {
			return fmt.Errorf("ticker symbol cannot be empty")
		}
		if len(str) > 10 {
			return fmt.Errorf("ticker symbol too long (max 10 characters)")
		}
		if !tickerPattern.MatchString(str) {
			return fmt.Errorf("invalid ticker format (letters, numbers, dots and hyphens only)")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(strings.ToUpper(ticker)), nil
}

// promptForDate asks for a date with a default, rejecting anything
// unparseable or in the future.
func promptForDate(message string, def time.Time) (time.Time, error) {
	var dateStr string
	prompt := &survey.Input{
		Message: message,
		Help:    "Format: YYYY-MM-DD (e.g., 2024-01-15)",
		Default: def.Format("2006-01-02"),
	}

	err := survey.AskOne(prompt, &dateStr, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		if str == "" {
			return nil
		}
		parsed, err := time.Parse("2006-01-02", str)
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD")
		}
		if parsed.After(time.Now().AddDate(0, 0, 1)) {
			return fmt.Errorf("date cannot be in the future")
		}
		return nil
	}))
	if err != nil {
		return time.Time{}, err
	}

	if strings.TrimSpace(dateStr) == "" {
		return def, nil
	}
	return time.Parse("2006-01-02", strings.TrimSpace(dateStr))
}

const (
	actionRecommend = "Recommendation - generate the current trading signal"
	actionSentiment = "Sentiment - show the recent daily sentiment series"
	actionBacktest  = "Backtest - replay the strategy over a date range"
	actionExit      = "Exit"
)

// promptForAction asks which operation to run next.
func promptForAction() (string, error) {
	var choice string
	prompt := &survey.Select{
		Message: "What would you like to do?",
		Options: []string{actionRecommend, actionSentiment, actionBacktest, actionExit},
		Default: actionRecommend,
	}
	err := survey.AskOne(prompt, &choice)
	return choice, err
}

// promptForConfirmation asks a yes/no question.
func promptForConfirmation(message string) (bool, error) {
	var confirmed bool
	prompt := &survey.Confirm{
		Message: message,
		Default: true,
	}
	err := survey.AskOne(prompt, &confirmed)
	return confirmed, err
}
