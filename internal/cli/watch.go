package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the account position on an interval",
	Long: `Poll the account's position every --interval and print each snapshot.
With --metrics-addr the balances, stake and loan are also exposed as
Prometheus gauges at /metrics, next to query and transaction counters.

A failed poll is reported and the next poll still runs. Stop with Ctrl+C,
or after --count polls.`,
	Example: `  lend watch --interval 30s
  lend watch --metrics-addr :9108 -o json`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	watchInterval    time.Duration
	watchMetricsAddr string
	watchAddress     string
	watchCount       int
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	watchCmd.GroupID = groupLending
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 30*time.Second, "time between polls")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9108)")
	watchCmd.Flags().StringVar(&watchAddress, "address", "", "account to watch (default: keyfile address)")
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "stop after this many polls (0 = until interrupted)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)
	if watchInterval <= 0 {
		return lenderr.WithDetails(lenderr.ErrInvalidInput, map[string]string{"interval": watchInterval.String()})
	}

	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	ctx, stop := signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := dialLendingFn(ctx, cc, dialOptions{account: watchAddress})
	if err != nil {
		return err
	}
	defer s.close()

	g, gctx := errgroup.WithContext(ctx)
	pollCtx, stopPolling := context.WithCancel(gctx)
	defer stopPolling()

	if watchMetricsAddr != "" && cc.Metrics != nil {
		cc.Printer.Infof("Serving metrics on %s/metrics", watchMetricsAddr)
		g.Go(func() error {
			return cc.Metrics.Serve(pollCtx, watchMetricsAddr)
		})
	}

	g.Go(func() error {
		defer stopPolling()
		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		for polls := 1; ; polls++ {
			cc.pollPosition(pollCtx, s)
			if watchCount > 0 && polls >= watchCount {
				return nil
			}
			select {
			case <-pollCtx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	return g.Wait()
}

// pollPosition prints one snapshot. Failures are reported and swallowed.
func (cc *CommandContext) pollPosition(ctx context.Context, s *session) {
	tctx, cancel := withTimeout(ctx, cc.Config.Client.Timeout)
	defer cancel()

	pos, err := s.client.Position(tctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		cc.Logger.Error("watch poll failed: %v", err)
		cc.Printer.Warnf("poll failed: %v", err)
		return
	}
	if pos == nil {
		return
	}

	res := cc.positionResult(pos)
	_ = cc.Formatter.Result(res, func(w io.Writer) error {
		out(w, "[%s] ", time.Now().UTC().Format(time.RFC3339))
		displayPosition(w, res)
		outln(w)
		return nil
	})
}
