package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sabaqlab/sabaq/internal/app"
	"github.com/sabaqlab/sabaq/internal/assessment"
	"github.com/sabaqlab/sabaq/internal/session"
	"github.com/sabaqlab/sabaq/internal/submit"
)

var takeCmd = &cobra.Command{
	Use:         "take [group-id] [assessment-id]",
	Short:       "Take a timed assessment",
	Long:        "Opens the assessment in the terminal UI. With --headless, answers are read from a JSON file and submitted when time runs out, or at once with --submit-now.",
	Args:        cobra.MaximumNArgs(2),
	Annotations: map[string]string{tuiAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var groupID, assessmentID string
		if len(args) > 0 {
			groupID = args[0]
		}
		if len(args) > 1 {
			assessmentID = args[1]
		}

		d, err := openDeps(cfg)
		if err != nil {
			return err
		}
		defer d.Close()

		headless, _ := cmd.Flags().GetBool("headless")
		if !headless {
			return app.Run(d.appOptions(groupID, assessmentID))
		}

		if groupID == "" || assessmentID == "" {
			return errors.New("--headless needs both a group id and an assessment id")
		}
		answersPath, _ := cmd.Flags().GetString("answers")
		submitNow, _ := cmd.Flags().GetBool("submit-now")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return takeHeadless(ctx, cmd, d, groupID, assessmentID, answersPath, submitNow)
	},
}

func init() {
	takeCmd.Flags().Bool("headless", false, "Run without the terminal UI")
	takeCmd.Flags().String("answers", "", "JSON file of [{\"questionId\",\"optionId\"}] to select (headless)")
	takeCmd.Flags().Bool("submit-now", false, "Submit immediately instead of waiting for the countdown (headless)")
}

func takeHeadless(ctx context.Context, cmd *cobra.Command, d *deps, groupID, assessmentID, answersPath string, submitNow bool) error {
	answers, err := readAnswers(answersPath)
	if err != nil {
		return err
	}

	sess, err := session.Load(ctx, d.client, groupID, assessmentID, session.WithSubmitter(d.pipeline))
	if err != nil {
		return err
	}
	defer sess.Close()

	a := sess.Assessment()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d questions, %s\n", titleOf(a), len(a.Questions), a.TimeLimit)

	for _, ans := range answers {
		if err := sess.Select(ans.QuestionID, ans.OptionID); err != nil {
			return fmt.Errorf("select %s=%s: %w", ans.QuestionID, ans.OptionID, err)
		}
	}
	p := sess.Progress()
	fmt.Fprintf(cmd.OutOrStdout(), "answered %d/%d (%d%%)\n", p.Answered, p.Total, p.Percent)

	var res *assessment.Result
	if submitNow {
		res, err = sess.Submit(ctx, session.TriggerManual)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "waiting %s for the countdown to expire\n", sess.Remaining())
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		res, err = sess.Run(ctx, ticker.C)
	}
	if err != nil {
		var se *submit.SubmitError
		if errors.As(err, &se) {
			log.Error().Err(err).Str("assessment_id", assessmentID).Msg("submission failed")
			return errors.New(se.UserMessage())
		}
		return err
	}

	printResult(cmd, res)
	return nil
}

func readAnswers(path string) ([]assessment.Answer, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	var answers []assessment.Answer
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("parse answers %s: %w", path, err)
	}
	return answers, nil
}

func titleOf(a *assessment.Assessment) string {
	if a.Title != "" {
		return a.Title
	}
	return a.ID
}

func printResult(cmd *cobra.Command, res *assessment.Result) {
	fmt.Fprintf(cmd.OutOrStdout(), "submitted: score %d/%d, time spent %d:%02d\n",
		res.Score, res.TotalPoints, res.TimeSpent/60, res.TimeSpent%60)
}
