package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tazhate/workoutplanner/config"
	"github.com/tazhate/workoutplanner/internal/clients/caldav"
	"github.com/tazhate/workoutplanner/internal/log"
	"github.com/tazhate/workoutplanner/internal/service"
	"github.com/tazhate/workoutplanner/internal/storage"
)

const usage = `usage: plannerctl <command> [flags] [args]

commands:
  create-user <username> [--password pw]   create a login (prompts for the password)
  import <file.csv>                        import a coach CSV export
  export <start> <end> [--calendar name]   export the plan for YYYY-MM-DD..YYYY-MM-DD
  cleanup [--calendar name] [--yes]        delete every workout event from the calendar
  dedupe                                   keep one selection per workout
  check-db                                 print table counts and plan stats
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", err)
	}
	log.SetLevel(log.ParseLevel(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd, args := os.Args[1], os.Args[2:]
	if err := run(ctx, cfg, cmd, args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, cmd string, args []string) error {
	flags := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	password := flags.String("password", "", "password for create-user")
	calendar := flags.String("calendar", cfg.CalendarName, "calendar name (default: configured or first)")
	yes := flags.BoolP("yes", "y", false, "do not ask for confirmation")
	if err := flags.Parse(args); err != nil {
		return err
	}
	args = flags.Args()

	switch cmd {
	case "create-user", "import", "export", "dedupe", "check-db", "cleanup":
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command")
	}

	if cmd == "cleanup" {
		return cleanup(ctx, cfg, *calendar, *yes)
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	switch cmd {
	case "create-user":
		if len(args) != 1 {
			return fmt.Errorf("expected <username>")
		}
		pw := *password
		if pw == "" {
			if pw, err = prompt("Password: "); err != nil {
				return err
			}
		}
		user, err := service.NewAuthService(store, cfg.SecretKey, cfg.JWTExpiration).Register(args[0], pw)
		if err != nil {
			return err
		}
		fmt.Printf("created user %q (id %d)\n", user.Username, user.ID)

	case "import":
		if len(args) != 1 {
			return fmt.Errorf("expected <file.csv>")
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		res, err := service.NewWorkoutService(store).ImportCSV(f)
		if err != nil {
			return err
		}
		fmt.Printf("imported %d workouts (%d duplicates, %d invalid rows skipped)\n",
			res.Imported, res.Duplicates, res.Invalid)

	case "export":
		if len(args) != 2 {
			return fmt.Errorf("expected <start> <end>")
		}
		start, err := caldav.ParseDate(args[0])
		if err != nil {
			return err
		}
		end, err := caldav.ParseDate(args[1])
		if err != nil {
			return err
		}
		if !cfg.CalDAVConfigured() {
			return fmt.Errorf("caldav credentials not configured")
		}
		exporter := service.NewExporter(service.NewSessionFactory(cfg.CalDAV), service.NewWorkoutService(store), *calendar)
		summary, err := exporter.Export(ctx, service.ExportRequest{Start: start, End: end})
		if err != nil {
			return err
		}
		fmt.Println(summary.Message)
		for _, r := range summary.Results {
			if !r.Success {
				fmt.Printf("  %s failed: %s\n", r.Date, r.Error)
			}
		}

	case "dedupe":
		n, err := store.DedupeSelections()
		if err != nil {
			return err
		}
		fmt.Printf("removed %d duplicate selections\n", n)

	case "check-db":
		counts, err := store.Counts()
		if err != nil {
			return err
		}
		tables := make([]string, 0, len(counts))
		for t := range counts {
			tables = append(tables, t)
		}
		sort.Strings(tables)
		for _, t := range tables {
			fmt.Printf("%-20s %d\n", t, counts[t])
		}
		stats, err := store.Stats()
		if err != nil {
			return err
		}
		fmt.Printf("selected %d, skipped %d, moved %d, custom %d, planned %.1fh\n",
			stats.SelectedWorkouts, stats.SkippedWorkouts, stats.MovedWorkouts,
			stats.CustomWorkouts, stats.PlannedHours)
	}
	return nil
}

// cleanup removes every workout event, whatever its date.
func cleanup(ctx context.Context, cfg *config.Config, calendar string, yes bool) error {
	if !cfg.CalDAVConfigured() {
		return fmt.Errorf("caldav credentials not configured")
	}
	if !yes {
		answer, err := prompt(fmt.Sprintf("Delete ALL %q events from the calendar? [y/N] ", caldav.WorkoutEventTitle))
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			fmt.Println("aborted")
			return nil
		}
	}

	session := caldav.NewSession(cfg.CalDAV)
	defer session.Disconnect()

	if err := session.Connect(ctx); err != nil {
		return err
	}
	if err := session.SelectCalendar(ctx, calendar); err != nil {
		return err
	}
	res, err := session.ReconcileAll(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d workout events (%d other events left alone)\n", res.Deleted, res.Skipped)
	for _, p := range res.Failed {
		fmt.Printf("  failed: %s\n", p)
	}
	return nil
}

func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
