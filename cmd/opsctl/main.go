// Command opsctl is a small admin client for the opsboard API: logging in,
// seeding staff and fleet, importing bank holidays and listing missing checks.
package main

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	apiURL  string
	token   string
	timeout time.Duration
	verbose bool
}

func (o *options) client() *apiClient {
	return newAPIClient(o.apiURL, o.token, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "opsctl",
		Short:         "Admin client for the opsboard API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("OPSBOARD_URL", "http://localhost:8080"), "API base URL (or set OPSBOARD_URL)")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("OPSBOARD_TOKEN"), "Bearer token (or set OPSBOARD_TOKEN)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newLoginCmd(opts),
		newSeedCmd(opts),
		newBankHolidaysCmd(opts),
		newChecksCmd(opts),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("opsctl failed")
		os.Exit(1)
	}
}
