package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kavalar/by-kalancha/internal/cli"
	"github.com/Kavalar/by-kalancha/internal/config"
	"github.com/Kavalar/by-kalancha/internal/core"
	applog "github.com/Kavalar/by-kalancha/internal/log"
)

type sendCmd struct {
	period  string
	from    string
	to      string
	dryRun  bool
	timeout time.Duration

	load   func() (*config.Config, error)
	logger *applog.Logger
}

func newSendCmd(load func() (*config.Config, error), logger *applog.Logger) *cobra.Command {
	sc := &sendCmd{load: load, logger: logger}
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Build a report for a period and dispatch it",
		Example: `  reportctl send --period weekly
  reportctl send --from 2024-03-01 --to 2024-03-10 --dry-run`,
		RunE: sc.run,
	}

	cmd.Flags().StringVar(&sc.period, "period", "daily", "Period to report on: daily, weekly or monthly")
	cmd.Flags().StringVar(&sc.from, "from", "", "Range start date (YYYY-MM-DD); needs --to")
	cmd.Flags().StringVar(&sc.to, "to", "", "Range end date (YYYY-MM-DD); needs --from")
	cmd.Flags().BoolVar(&sc.dryRun, "dry-run", false, "Print the rendered report instead of sending it")
	cmd.Flags().DurationVar(&sc.timeout, "timeout", 60*time.Second, "Overall time budget")
	cmd.MarkFlagsRequiredTogether("from", "to")

	return cmd
}

func (sc *sendCmd) run(cmd *cobra.Command, args []string) error {
	kind, err := core.ParsePeriodKind(sc.period)
	if err != nil {
		return err
	}
	cfg, err := sc.load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), sc.timeout)
	defer cancel()

	app, err := cli.NewApp(ctx, cfg, sc.logger)
	if err != nil {
		return err
	}
	defer app.Close()

	req := core.PeriodRequest{Kind: kind, StartDate: sc.from, EndDate: sc.to}
	out := cmd.OutOrStdout()

	if sc.dryRun {
		draft, err := app.Service.Build(ctx, req)
		if err != nil {
			return err
		}
		if draft.Report == nil {
			fmt.Fprintln(out, app.Renderer.NoDataMessage())
			return nil
		}
		fmt.Fprintf(out, "%s\n\n%s\n", draft.Report.Title, draft.Report.Body)
		return nil
	}

	outcome, err := app.Service.Generate(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, outcome.Message)
	if outcome.Status == core.OutcomeSent {
		fmt.Fprintf(out, "channel=%s recipients=%d message_id=%s\n",
			outcome.Dispatch.Channel, outcome.Dispatch.Recipients, outcome.Dispatch.MessageID)
	}
	return nil
}
