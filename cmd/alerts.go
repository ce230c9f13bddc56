package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/tradeflow/internal/monitoring"
)

var (
	alertsSend  bool
	alertsWatch bool
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List operation alerts, optionally delivering them to the webhook",
	Long: "Collects the overdue, upcoming, reconciliation and dependency alerts of every operation. " +
		"With --send the new ones are posted to alerts.webhook_url; --watch keeps checking on alerts.check_interval_secs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := initService(cfg, "derive")
		if err != nil {
			return err
		}
		collector := monitoring.NewCollector(svc)

		if !alertsSend && !alertsWatch {
			d, err := collector.Collect(ctx)
			if err != nil {
				return eris.Wrap(err, "alerts")
			}
			formatDigest(os.Stdout, d)
			return nil
		}

		if cfg.Alerts.WebhookURL == "" {
			zap.L().Warn("alerts.webhook_url is empty, nothing will be delivered")
		}
		checker := monitoring.NewChecker(collector, monitoring.NewAlerter(cfg.Alerts), cfg.Alerts)
		if alertsWatch {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			checker.Check(ctx, zap.L())
			checker.Run(ctx)
			return nil
		}
		sent := checker.Check(ctx, zap.L())
		zap.L().Info("alerts delivered", zap.Int("sent", sent))
		return nil
	},
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsSend, "send", false, "deliver new alerts to the webhook")
	alertsCmd.Flags().BoolVar(&alertsWatch, "watch", false, "keep checking until interrupted (implies --send)")
	rootCmd.AddCommand(alertsCmd)
}

// formatDigest writes the alert counts and one line per alert to w.
func formatDigest(out io.Writer, d *monitoring.Digest) {
	_, _ = fmt.Fprintf(out, "Operations: %d (invalid: %d)\n", d.Operations, d.Invalid)
	_, _ = fmt.Fprintf(out, "Overdue: %d  Upcoming: %d  Reconciliation: %d  Dependency: %d\n\n",
		d.Overdue, d.Upcoming, d.Reconciliation, d.Dependency)
	if len(d.Items) == 0 {
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tCLIENT\tKIND\tSEVERITY\tLABEL\tDUE\tDAYS\tMESSAGE")
	_, _ = fmt.Fprintln(w, "---\t------\t----\t--------\t-----\t---\t----\t-------")
	for _, item := range d.Items {
		a := item.Alert
		due, days := "-", "-"
		if a.DueDate != nil {
			due = a.DueDate.Format("2006-01-02")
			days = fmt.Sprintf("%d", a.DaysDelta)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			dash(item.SourceKey),
			dash(item.Client),
			a.Kind,
			a.Severity,
			a.Label,
			due,
			days,
			a.Message,
		)
	}
	_ = w.Flush()
}
