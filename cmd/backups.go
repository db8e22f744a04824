package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "Inspect and resend locally saved attempts",
}

var backupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attempts saved but not yet accepted by the service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cfg)
		if err != nil {
			return err
		}
		defer d.Close()

		items, err := d.store.BackupRepo().List(cmd.Context())
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No pending submissions.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ASSESSMENT\tGROUP\tANSWERS\tTIME SPENT\tSAVED")
		for _, b := range items {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d:%02d\t%s\n",
				b.AssessmentID, b.GroupID, len(b.Answers),
				b.TimeSpent/60, b.TimeSpent%60, b.Timestamp.Local().Format(time.DateTime))
		}
		return w.Flush()
	},
}

var backupsResubmitCmd = &cobra.Command{
	Use:   "resubmit <assessment-id>",
	Short: "Send a saved attempt again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cfg)
		if err != nil {
			return err
		}
		defer d.Close()

		res, err := d.pipeline.Resubmit(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printResult(cmd, res)
		return nil
	},
}

var backupsDeleteCmd = &cobra.Command{
	Use:   "delete <assessment-id>",
	Short: "Discard a saved attempt, including one that can no longer be read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cfg)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.store.BackupRepo().Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted saved attempt for %s.\n", args[0])
		return nil
	},
}

func init() {
	backupsCmd.AddCommand(backupsListCmd)
	backupsCmd.AddCommand(backupsResubmitCmd)
	backupsCmd.AddCommand(backupsDeleteCmd)
}
