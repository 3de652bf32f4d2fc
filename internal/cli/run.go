package cli

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/talentpulse/interview-engine/internal/archive"
	"github.com/talentpulse/interview-engine/internal/backend"
	"github.com/talentpulse/interview-engine/internal/domain"
	"github.com/talentpulse/interview-engine/internal/logging"
	"github.com/talentpulse/interview-engine/internal/mailbox"
	"github.com/talentpulse/interview-engine/internal/session"
)

var (
	runRole     string
	runLevel    string
	runDuration int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interview session",
	RunE:  runInterview,
}

func init() {
	runCmd.Flags().StringVar(&runRole, "role", "", "Role to interview for, e.g. \"Data Analyst\"")
	runCmd.Flags().StringVar(&runLevel, "level", "Entry", "Seniority level: Entry, Mid, or Senior")
	runCmd.Flags().IntVar(&runDuration, "duration", 10, "Interview duration in minutes")
	runCmd.MarkFlagRequired("role")
}

func runInterview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.WithComponent("cli")

	// The mailbox server receives out-of-band question pushes from the
	// backend; the engine's poller reads them back over HTTP, the same
	// loop a remote poller would run.
	box := mailbox.New()
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	mailbox.NewHandler(box, logging.WithComponent("mailbox")).RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	go func() {
		addr := fmt.Sprintf(":%d", cfg.MailboxPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start mailbox server")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	arch, err := archive.NewSQLiteArchive(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer arch.Close()

	client := backend.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	source := mailbox.NewHTTPSource(cfg.MailboxURL, cfg.RequestTimeout)

	engine := session.NewEngine(session.Options{
		PollInterval:    cfg.PollInterval,
		EvalQuietPeriod: cfg.EvalQuietPeriod,
		TimeoutPolicy:   cfg.TimeoutPolicy,
		UserID:          cfg.UserID,
		TestID:          cfg.TestID,
	}, client, source, arch, logging.WithComponent("engine"))

	engine.SetNotifyHook(func(msg string) {
		fmt.Printf("\n! %s\n> ", msg)
	})
	engine.Store().SetEntryHook(printEntry)
	engine.Evaluator().SetResultHook(printClassification)

	ctx := context.Background()
	if err := engine.Start(ctx, runRole, runLevel, runDuration); err != nil {
		return err
	}

	fmt.Printf("Interview started for %s (%s, %d minutes).\n", runRole, runLevel, runDuration)
	fmt.Println("Type your answer and press Enter to submit.")
	fmt.Println("Commands: /draft <text>, /time, /end, /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())

		switch {
		case input == "/quit":
			return nil
		case input == "/time":
			printTime(engine)
			continue
		case strings.HasPrefix(input, "/draft "):
			engine.AnswerChanged(strings.TrimPrefix(input, "/draft "))
			continue
		case input == "/end":
			if err := engine.EndInterview(ctx); err != nil {
				fmt.Printf("! %v\n", err)
			}
		case input == "":
			continue
		default:
			if err := engine.SubmitAnswer(ctx, input); err != nil {
				fmt.Printf("! %v\n", err)
				continue
			}
		}

		if !engine.Store().Active() {
			printFeedback(engine.Store().Snapshot())
			return nil
		}
	}
	return scanner.Err()
}

func printEntry(entry domain.Entry) {
	switch entry.Type {
	case domain.EntryUser:
		fmt.Printf("\nYou: %s\n", entry.Text)
	case domain.EntryAI:
		fmt.Printf("\nAI: %s\n", entry.Text)
	case domain.EntryHint:
		fmt.Printf("\nHint: %s\n", entry.Text)
	}
}

func printClassification(eval domain.Evaluation) {
	switch eval.Action {
	case domain.ActionHint:
		fmt.Printf("\nHint: %s\n> ", eval.Message)
	case domain.ActionStop:
		fmt.Printf("\nYou seem off track; consider submitting what you have.\n> ")
	}
}

func printTime(engine *session.Engine) {
	elapsed := engine.Store().Elapsed()
	remaining := engine.Countdown().Remaining()
	fmt.Printf("Elapsed %s, %s left on this question.\n",
		formatClock(elapsed), formatClock(remaining))
}

func printFeedback(snap session.Snapshot) {
	fmt.Printf("\nInterview complete after %s.\n", formatClock(snap.Elapsed))
	if snap.Feedback == nil {
		return
	}
	fmt.Println("\nFeedback:")
	fmt.Printf("  Strengths:     %s\n", snap.Feedback.Strengths)
	fmt.Printf("  Communication: %s\n", snap.Feedback.Communication)
	fmt.Printf("  Suggestions:   %s\n", snap.Feedback.Suggestions)
}

// formatClock renders seconds as "Xm Ys".
func formatClock(seconds int) string {
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
