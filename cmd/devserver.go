package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sabaqlab/sabaq/internal/mockapi"
)

var devServerCmd = &cobra.Command{
	Use:   "dev-server",
	Short: "Run an in-memory assessment service for local development",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := mockapi.New(cfg.JWTSecret, mockapi.SampleTests()...)

		user, _ := cmd.Flags().GetString("user")
		token, err := srv.IssueToken(user, 24*time.Hour)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "token for %s (valid 24h):\n  %s\n\n", user, token)
		fmt.Fprintln(out, "sample assessments:")
		for _, t := range mockapi.SampleTests() {
			fmt.Fprintf(out, "  sabaq take %s %s   # %s\n", t.GroupID, t.ID, t.Title)
		}
		fmt.Fprintln(out)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, cfg.DevAddr)
	},
}

func init() {
	devServerCmd.Flags().String("addr", "", "Listen address (overrides SABAQ_DEV_ADDR, default :5000)")
	devServerCmd.Flags().String("user", "student-1", "User id placed in the printed token")
}
