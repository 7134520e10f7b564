package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/piyush182004/Fynd/pkg/dashboard"
	"github.com/piyush182004/Fynd/pkg/feedbackapi"
	"github.com/piyush182004/Fynd/pkg/poller"
)

var errDashboardUnavailable = errors.New(feedbackapi.DashboardFailedMessage)

func dashboardCommand(v *viper.Viper) *cobra.Command {
	var (
		rating   string
		watch    bool
		interval time.Duration
		output   string
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show review analytics and the review list",
		Long: `Fetch reviews and analytics and print totals, the rating distribution and
the reviews passing --rating. With --watch the dashboard is reprinted every
--interval until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := dashboard.ParseFilter(rating)
			if err != nil {
				return fmt.Errorf("--rating: %w", err)
			}
			if output != "text" && output != "json" {
				return fmt.Errorf("--output must be text or json, got %q", output)
			}
			if watch && interval < 10*time.Millisecond {
				return fmt.Errorf("--interval must be at least 10ms, got %s", interval)
			}

			client, log, err := newClient(cmd, v)
			if err != nil {
				return err
			}

			vm := dashboard.New(client, log)
			vm.SetFilter(f)
			printer := &viewPrinter{vm: vm, out: cmd.OutOrStdout(), json: output == "json"}

			if !watch {
				return printer.Refresh(cmd.Context())
			}

			poller.New(printer, interval, true, log).Run(cmd.Context())
			return nil
		},
	}

	cmd.Flags().StringVar(&rating, "rating", "all", "Only list reviews with this rating: all or 1-5")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep refreshing until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "Refresh period with --watch")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text or json")

	return cmd
}

// viewPrinter refreshes the view model and prints the result. Overlapping
// refreshes from the poller print one at a time.
type viewPrinter struct {
	vm   *dashboard.ViewModel
	out  io.Writer
	json bool
	mu   sync.Mutex
}

func (p *viewPrinter) Refresh(ctx context.Context) error {
	refreshErr := p.vm.Refresh(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	v := p.vm.View()
	if p.json {
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode dashboard: %w", err)
		}
	} else {
		renderText(p.out, v)
	}

	if refreshErr != nil {
		return errDashboardUnavailable
	}
	return nil
}
