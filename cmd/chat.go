package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smarthealth/healthnav/internal/app"
	"github.com/smarthealth/healthnav/internal/config"
	"github.com/smarthealth/healthnav/internal/health"
	"github.com/smarthealth/healthnav/internal/log"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{})
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	fmt.Println("healthnav - ask about your health history, or /help for commands")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")

		if !scanner.Scan() {
			fmt.Println("\ngoodbye")
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			exit, err := handleCommand(ctx, a, scanner, input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			if exit {
				break
			}
			continue
		}

		reply, err := a.Assistant.Respond(ctx, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(reply)
		fmt.Println()
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// handleCommand handles slash commands. Returns true when the loop should
// exit.
func handleCommand(ctx context.Context, a *app.App, scanner *bufio.Scanner, input string) (bool, error) {
	switch strings.Fields(input)[0] {
	case "/help":
		fmt.Println("Commands:")
		fmt.Println("  /intake  - register a new health record, field by field")
		fmt.Println("  /help    - show this help")
		fmt.Println("  /exit    - quit (Ctrl+D also works)")
		fmt.Println()
		return false, nil

	case "/intake":
		return false, runIntakePrompts(ctx, a, scanner)

	case "/exit", "/quit":
		fmt.Println("goodbye")
		return true, nil

	default:
		fmt.Printf("Unknown command: %s\n", input)
		fmt.Println("Type /help to see available commands")
		fmt.Println()
		return false, nil
	}
}

// runIntakePrompts collects the intake fields one at a time and submits
// them. Blank answers are allowed and simply leave the field empty.
func runIntakePrompts(ctx context.Context, a *app.App, scanner *bufio.Scanner) error {
	type prompt struct {
		label string
		field *string
	}

	var in health.IntakeInput
	prompts := []prompt{
		{"Name", &in.Name},
		{"Age", &in.Age},
		{"Gender", &in.Gender},
		{"Treatment history", &in.TreatmentHistory},
		{"Medication history", &in.MedicationHistory},
		{"Diagnosis history", &in.DiagnosisHistory},
		{"Symptoms", &in.Symptoms},
		{"Allergies", &in.Allergies},
	}

	for _, p := range prompts {
		fmt.Printf("%s: ", p.label)
		if !scanner.Scan() {
			return errors.New("input closed during intake")
		}
		*p.field = strings.TrimSpace(scanner.Text())
	}

	reply, err := a.Assistant.Ingest(ctx, in)
	if err != nil {
		return err
	}
	fmt.Println(reply)
	fmt.Println()
	return nil
}
