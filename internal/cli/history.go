package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talentpulse/interview-engine/internal/archive"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived interview sessions",
	RunE:  showHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of sessions to list")
}

func showHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	arch, err := archive.NewSQLiteArchive(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer arch.Close()

	records, err := arch.List(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No archived sessions.")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  %s (%s, %dm planned, %s spent)  %d entries\n",
			rec.CompletedAt.Format("2006-01-02 15:04"),
			rec.Role, rec.Level, rec.DurationMinutes,
			formatClock(rec.ElapsedSeconds), len(rec.Transcript))
		if rec.Feedback != nil {
			fmt.Printf("    Suggestions: %s\n", rec.Feedback.Suggestions)
		}
	}
	return nil
}
