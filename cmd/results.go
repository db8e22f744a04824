package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results <group-id> <assessment-id>",
	Short: "Show the graded review of your latest attempt",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cfg)
		if err != nil {
			return err
		}
		defer d.Close()

		rev, err := d.reviews(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		title := rev.Title
		if title == "" {
			title = rev.AssessmentID
		}
		fmt.Fprintf(out, "%s\nscore %d/%d (%d%%), %d of %d correct\n\n",
			title, rev.Score, rev.TotalPoints, rev.Percent(), rev.CorrectCount(), len(rev.Items))
		for i, it := range rev.Items {
			mark := "✗"
			if it.IsCorrect() {
				mark = "✓"
			}
			selected := it.SelectedOptionID
			if selected == "" {
				selected = "-"
			}
			fmt.Fprintf(out, "%s %2d. %s  [selected %s]\n", mark, i+1, it.Text, selected)
		}
		return nil
	},
}
