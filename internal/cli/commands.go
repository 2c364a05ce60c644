package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/avolkov/sentigo/config"
	"github.com/avolkov/sentigo/internal/display"
	"github.com/avolkov/sentigo/internal/server"
)

const version = "0.3.0"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "sentigo",
		Short: "Sentigo - sentiment-fused stock signals",
		Long: `Sentigo fuses social media sentiment with technical indicators to
produce buy/sell/hold signals, and can replay the strategy over
historical data to measure it against the S&P 500.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			return runInteractiveMode(cfg, debug)
		},
	}

	rootCmd.AddCommand(newRecommendCmd(cfg))
	rootCmd.AddCommand(newSentimentCmd(cfg))
	rootCmd.AddCommand(newBacktestCmd(cfg))
	rootCmd.AddCommand(newServeCmd(cfg))
	rootCmd.AddCommand(newInteractiveCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}

func newRecommendCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend SYMBOL",
		Short: "Generate the current trading signal for a symbol",
		Long: `Collect recent mentions, score their sentiment, compute technical
indicators and fuse both into a trading signal.
Example: sentigo recommend AAPL`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			a, err := newApp(cfg, debug)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.svc.Recommend(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			display.Recommendation(rec)
			return nil
		},
	}
	return cmd
}

func newSentimentCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sentiment SYMBOL",
		Short: "Show the daily sentiment series for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			debug, _ := cmd.Flags().GetBool("debug")
			a, err := newApp(cfg, debug)
			if err != nil {
				return err
			}
			defer a.Close()

			to := time.Now().UTC()
			from := to.AddDate(0, 0, -days)
			series, err := a.svc.HistoricalSentiment(cmd.Context(), args[0], from, to)
			if err != nil {
				return err
			}
			display.SentimentSeries(args[0], series)
			return nil
		},
	}
	cmd.Flags().Int("days", 7, "How many trailing days to aggregate")
	return cmd
}

func newBacktestCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest SYMBOL",
		Short: "Replay the strategy over a historical window",
		Long: `Simulate the signal strategy day by day over a date range and
compare the result against buying and holding the S&P 500.
Example: sentigo backtest AAPL --start=2024-01-02 --end=2024-06-28`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startStr, _ := cmd.Flags().GetString("start")
			endStr, _ := cmd.Flags().GetString("end")

			start, err := time.Parse("2006-01-02", startStr)
			if err != nil {
				return fmt.Errorf("--start must be YYYY-MM-DD: %w", err)
			}
			end, err := time.Parse("2006-01-02", endStr)
			if err != nil {
				return fmt.Errorf("--end must be YYYY-MM-DD: %w", err)
			}

			debug, _ := cmd.Flags().GetBool("debug")
			a, err := newApp(cfg, debug)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.svc.RunBacktest(cmd.Context(), args[0], start, end)
			if err != nil {
				return err
			}
			display.BacktestResult(result)
			return nil
		},
	}
	cmd.Flags().String("start", "", "Window start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Window end date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			a, err := newApp(cfg, debug)
			if err != nil {
				return err
			}
			defer a.Close()

			host, _ := cmd.Flags().GetString("host")
			port, _ := cmd.Flags().GetInt("port")
			if host == "" {
				host = cfg.ServerHost
			}
			if port == 0 {
				port = cfg.ServerPort
			}

			watchCtx, cancelWatch := context.WithCancel(context.Background())
			defer cancelWatch()

			// Hot reload: edits to the managed config file swap the
			// strategy and simulator parameters without a restart.
			mgr, err := config.NewManager(
				config.WithInitialConfig(cfg),
				config.WithManagerLogger(a.log),
			)
			if err != nil {
				a.log.Warn().Err(err).Msg("config manager unavailable, hot reload disabled")
			} else {
				mgr.OnChange(func(next config.Config) {
					if err := a.svc.ApplyStrategy(next.Strategy, next.Backtest); err != nil {
						a.log.Warn().Err(err).Msg("reloaded config rejected, keeping previous parameters")
					}
				})
				if err := mgr.Watch(watchCtx); err != nil {
					a.log.Warn().Err(err).Msg("config watch unavailable, hot reload disabled")
				} else {
					a.log.Info().Str("path", mgr.Path()).Msg("watching config file for strategy changes")
				}
			}

			srv := server.New(server.DefaultServerConfig(host, port), a.svc, a.log)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-stop:
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}
	cmd.Flags().String("host", "", "Listen host (default from config)")
	cmd.Flags().Int("port", 0, "Listen port (default from config)")
	return cmd
}

func newInteractiveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start the interactive prompt loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			return runInteractiveMode(cfg, debug)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sentigo v%s\n", version)
			fmt.Println("Sentiment-fused stock trading signals")
		},
	}
}
