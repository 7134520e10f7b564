// Command feedbackctl submits reviews to and inspects the Fynd feedback API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"github.com/piyush182004/Fynd/cmd/feedbackctl/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.RootCommand(viper.New()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
