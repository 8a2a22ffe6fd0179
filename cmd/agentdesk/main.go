package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rahul/agentdesk/internal/agent"
	"github.com/rahul/agentdesk/internal/gateway"
	"github.com/rahul/agentdesk/internal/llm"
	"github.com/rahul/agentdesk/internal/observability"
	"github.com/rahul/agentdesk/pkg/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "agentdesk",
		Short: "AgentDesk - route questions to research, analysis and writing agents",
		Long: `AgentDesk classifies a query, plans which agents to run, executes them in
order and combines their output. Without a configured completion backend every
agent answers from built-in fallback text.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			observability.SetupGlobal(opts.logLevel, true)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.json", "config file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "print agent events to stderr")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newAskCmd(opts),
		newProbeCmd(opts),
		newHistoryCmd(opts),
	)
	return rootCmd
}

// loadApp reads the config and wires the desk. Agent events are printed only
// when verbose is set.
func loadApp(opts *rootOptions, verbose bool) (*app, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel == "" {
		observability.SetupGlobal(cfg.Logging.Level, true)
	}

	var events io.Writer = io.Discard
	if verbose {
		events = os.Stderr
	}
	return newApp(cfg, events)
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI and any enabled chat gateways",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			observability.PrintBanner(os.Stdout)

			a, err := loadApp(opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	var messengers []gateway.Messenger
	if tg, ok := a.cfg.GetTelegramConfig(); ok {
		m, err := gateway.NewTelegramGateway(tg.Token, a.desk, a.logger)
		if err != nil {
			return err
		}
		messengers = append(messengers, m)
	}
	if dc, ok := a.cfg.GetDiscordConfig(); ok {
		m, err := gateway.NewDiscordGateway(dc.Token, a.desk, a.logger)
		if err != nil {
			return err
		}
		messengers = append(messengers, m)
	}

	g, ctx := errgroup.WithContext(ctx)

	web := gateway.NewWebServer(a.cfg.Server.Addr, a.desk, a.backend != nil)
	g.Go(func() error { return web.Start(ctx) })

	for _, m := range messengers {
		m := m
		g.Go(func() error {
			log.Info().Str("gateway", m.Name()).Msg("gateway starting")
			if err := m.Start(ctx); err != nil {
				return fmt.Errorf("%s gateway: %w", m.Name(), err)
			}
			return nil
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				observability.Heartbeat()
				a.logger.LogHeartbeat()
			}
		}
	})

	err := g.Wait()
	log.Info().Msg("shutting down")
	return err
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		modeName string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Answer a single query and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := agent.ParseMode(modeName)
			if err != nil {
				return err
			}

			a, err := loadApp(opts, opts.verbose)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.desk.Process(cmd.Context(), mode, strings.Join(args, " "))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			printOutcome(w, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&modeName, "mode", "m", string(agent.ModeMulti), "multi or single")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full outcome as JSON")
	return cmd
}

func printOutcome(w io.Writer, out *agent.Outcome) {
	if st := out.State; st != nil {
		steps := make([]string, len(st.Plan))
		for i, s := range st.Plan {
			steps[i] = fmt.Sprintf("%s (%s)", s.Agent, s.Task)
		}
		fmt.Fprintf(w, "📋 Plan: %s\n\n", strings.Join(steps, " -> "))
	}
	fmt.Fprintln(w, out.Answer)
	fmt.Fprintf(w, "\n⏱  %.2fs\n", out.Duration.Seconds())
}

func newProbeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Test the connection to the completion backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts, opts.verbose)
			if err != nil {
				return err
			}
			defer a.Close()

			res := llm.Probe(cmd.Context(), a.backend)
			provider := a.provider
			if provider == "" {
				provider = "none"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "provider: %s\nstatus:   %s\nresponse: %s\n", provider, res.Status, res.Response)
			if res.Status == llm.ProbeError {
				return fmt.Errorf("probe failed")
			}
			return nil
		},
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			runs, err := a.desk.RecentRuns(limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(w, "No history.")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(w, "%s  %-6s  %6.2fs  %s\n", r.StartedAt.Local().Format(time.DateTime), r.Mode, r.Duration.Seconds(), r.Query)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of entries to show")

	cmd.AddCommand(newMessagesCmd(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all stored queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.desk.ClearHistory(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	})
	return cmd
}

func newMessagesCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "messages <chat-id>",
		Short: "Show the stored conversation of a chat gateway user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			msgs, err := a.history.GetMessages(args[0], limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(msgs) == 0 {
				fmt.Fprintln(w, "No messages.")
				return nil
			}
			for _, m := range msgs {
				fmt.Fprintf(w, "%s  %-5s  %s\n", m.Timestamp.Local().Format(time.DateTime), m.Role, m.Content)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of messages to show")
	return cmd
}
