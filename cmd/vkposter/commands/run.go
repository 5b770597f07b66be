package commands

import (
	"context"
	"io"
	"log/slog"
	"time"
	"vkposter/internal/auth"
	"vkposter/internal/config"
	"vkposter/internal/poster"
	"vkposter/internal/prompt"
	"vkposter/internal/telemetry"
	"vkposter/internal/vkapi"
	"vkposter/lib/restyutil"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var dumpHTTP string

func init() {
	runCmd.Flags().StringVar(&dumpHTTP, "dump-http", "", "Write every HTTP exchange (secrets masked) to this directory.")
	rootCmd.AddCommand(runCmd)
}

func newClient(cfg config.Config, prompter prompt.Prompter, dump restyutil.Output, tel telemetry.API) vkapi.Client {
	transport := vkapi.NewHTTPTransport(vkapi.TransportOptions{
		APIBaseURL:   cfg.API.BaseURL,
		OAuthBaseURL: cfg.API.OAuthURL,
		Version:      cfg.API.Version,
		Timeout:      cfg.API.Timeout(),
		MinInterval:  cfg.Poster.Interval(),
		Dump:         dump,
	}, tel)
	solver := prompt.NewCaptchaSolver(prompter, tel)
	exec := vkapi.NewExecutor(transport, solver, cfg.API.ChallengeMaxAttempts, tel)
	return vkapi.NewClient(exec)
}

func printReport(out io.Writer, runID string, report poster.Report) {
	t := newTable(out)
	t.SetTitle("run " + runID)
	t.AppendHeader(table.Row{"", "Posted", "Already there", "Excluded", "Failed"})
	t.AppendRows([]table.Row{
		{"Groups", report.Groups.Posted, report.Groups.Existing, report.ExcludedGroups, report.Groups.Failed},
		{"Topics", report.Topics.Posted, report.Topics.Existing, report.Topics.Excluded, report.Topics.Failed},
	})
	t.AppendFooter(table.Row{"Tags", report.Tags, "Pages", report.Pages, ""})
	t.Render()
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	slog.SetDefault(slog.Default().With("run_id", runID))

	otelProviders, err := telemetry.Setup(ctx, "vkposter", cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := otelProviders.Shutdown(shutdownCtx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	}()

	var dump restyutil.Output
	if dumpHTTP != "" {
		output, err := restyutil.NewFilesystemOutput(dumpHTTP)
		if err != nil {
			return err
		}
		dump = output
	}

	tel := telemetry.SlogAPI{}
	console := prompt.NewConsole(cmd.InOrStdin(), cmd.ErrOrStderr())
	client := newClient(cfg, console, dump, tel)

	authenticator := auth.NewAuthenticator(client, console, cfg.API.OAuthURL, tel)
	session, err := authenticator.Authenticate(ctx, cfg.Auth)
	if err != nil {
		return err
	}

	service := poster.NewService(
		client,
		session,
		poster.OptionsFromConfig(cfg.Poster),
		poster.NewPacer(cfg.Poster.Interval(), poster.Sleep),
		tel,
	)
	report, err := service.Run(ctx)
	printReport(cmd.OutOrStdout(), runID, report)
	return err
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Authenticates and posts the configured message to every selected group.",
	Args:  cobra.NoArgs,
	RunE:  run,
}
