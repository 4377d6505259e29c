// Command cyclectl manages period dates on a cyclecal server from the
// terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/cyclecal/internal/client"
	"github.com/terraincognita07/cyclecal/internal/logging"
	"go.uber.org/zap"
)

const defaultServer = "http://localhost:8080"

type rootOptions struct {
	server  string
	token   string
	timeout time.Duration
	verbose bool
	logger  *zap.Logger
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "cyclectl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "cyclectl",
		Short:         "Log period start dates and read predictions from a cyclecal server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			logger, err := logging.New(level, logging.FormatConsole, "stderr")
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.server, "server", envOr("CYCLECAL_SERVER", defaultServer), "cyclecal server address")
	flags.StringVar(&opts.token, "token", os.Getenv("CYCLECAL_TOKEN"), "session token (defaults to $CYCLECAL_TOKEN)")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall command timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log store calls and transitions")

	cmd.AddCommand(
		newLoginCommand(opts),
		newRegisterCommand(opts),
		newStatusCommand(opts),
		newMarkCommand(opts, markAdd),
		newMarkCommand(opts, markRemove),
		newClearCommand(opts),
		newSettingsCommand(opts),
		newICSCommand(opts),
	)
	return cmd
}

func (opts *rootOptions) client() *client.Client {
	return client.New(opts.server, client.WithToken(opts.token))
}

func (opts *rootOptions) signedInClient() (*client.Client, error) {
	if strings.TrimSpace(opts.token) == "" {
		return nil, fmt.Errorf("%w: run cyclectl login and export CYCLECAL_TOKEN", client.ErrUnauthorized)
	}
	return opts.client(), nil
}

func (opts *rootOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), opts.timeout)
}

func envOr(key string, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
