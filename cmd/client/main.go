package main

import (
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"taskd/internal/client"
)

var (
	baseURL string
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "taskd-client",
	Short:        "Interactive text menu for the task API",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		c := client.New(baseURL, &http.Client{Timeout: timeout})
		return client.NewMenu(c, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
	},
}

func init() {
	url := os.Getenv("TASKD_URL")
	if url == "" {
		url = "http://localhost:8000"
	}
	rootCmd.Flags().StringVar(&baseURL, "url", url, "API base URL (env TASKD_URL)")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
