package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/internal/config"
	"github.com/jakechorley/camp-scheduler/pkg/clients/webhookclient"
	"github.com/jakechorley/camp-scheduler/pkg/core/gateway"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/schedule"
	"github.com/jakechorley/camp-scheduler/pkg/core/services"
	"github.com/jakechorley/camp-scheduler/pkg/postgres"
	"github.com/jakechorley/camp-scheduler/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg     *config.Config
	gateway *gateway.Gateway
	grid    schedule.Grid
	logger  *zap.Logger
	ctx     context.Context
	cleanup func()
}

var (
	env string
	app *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Camp Scheduler CLI - Manage weekly staff assignments",
		Long:  `A CLI tool for the summer camp staff-scheduling board: assign, remove and swap staff across the elementary and middle programs, and sync with the remote store.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.cleanup != nil {
					app.cleanup()
				}
				if app.logger != nil {
					app.logger.Sync()
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(saveCmd())
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(assignCmd())
	rootCmd.AddCommand(removeCmd())
	rootCmd.AddCommand(swapCmd())
	rootCmd.AddCommand(staffCmd())
	rootCmd.AddCommand(hoursCmd())
	rootCmd.AddCommand(interactiveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, store and gateway, and performs the
// initial load
func initApp() error {
	var err error
	app = &App{
		ctx:     context.Background(),
		cleanup: func() {},
	}

	app.logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Starting application", zap.String("environment", env))

	app.logger.Info("Loading configuration")
	app.cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.logger.Debug("Configuration loaded successfully")

	app.grid = schedule.NewGrid(app.cfg.TimeSlots)

	var store gateway.ScheduleStore
	switch app.cfg.Backend {
	case "postgres":
		app.logger.Info("Connecting to postgres store")
		db, err := postgres.NewDB(app.ctx, app.cfg.PostgresURL, app.logger)
		if err != nil {
			return fmt.Errorf("failed to open postgres store: %w", err)
		}
		app.cleanup = db.Close
		store = db
	default:
		app.logger.Info("Using webhook store", zap.String("url", app.cfg.WebhookURL))
		store = webhookclient.NewClient(app.cfg.WebhookURL, app.cfg.RequestTimeout(), app.logger)
	}

	app.gateway = gateway.New(store, app.cfg.MissingKeyPolicy(), app.logger)

	app.logger.Info("Loading schedule data")
	if err := app.gateway.Load(app.ctx); err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}

	return nil
}

// Command definitions

func loadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Reload schedule data from the remote store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			var err error
			if force {
				err = app.gateway.DiscardAndLoad(app.ctx)
			} else {
				err = app.gateway.Load(app.ctx)
			}
			if err == gateway.ErrUnsavedChanges {
				fmt.Println("Board has unsaved changes. Save first, or rerun with --force to discard them.")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("\nSchedule loaded: %d elementary, %d middle assignments, %d staff.\n",
				len(app.gateway.Assignments(model.ProgramElementary)),
				len(app.gateway.Assignments(model.ProgramMiddle)),
				len(app.gateway.Staff()))
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Discard local edits and reload")
	return cmd
}

func saveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save both programs' assignments to the remote store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.gateway.Save(app.ctx); err != nil {
				return err
			}
			fmt.Println("\nSchedule saved and reloaded from the store.")
			return nil
		},
	}
}

func boardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board <program>",
		Short: "Print the weekly board for a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := model.Program(args[0])
			if !p.IsValid() {
				return fmt.Errorf("program must be elementary or middle, got %q", args[0])
			}

			week, err := resolveWeek(cmd)
			if err != nil {
				return err
			}

			printBoard(p, week)
			return nil
		},
	}
	cmd.Flags().String("week", "", "Any date inside the week to show (YYYY-MM-DD, default: this week)")
	return cmd
}

func assignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <program> <staff_name> <date> <start_time>",
		Short: "Assign a staff member to a slot",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := model.Program(args[0])
			if !p.IsValid() {
				return fmt.Errorf("program must be elementary or middle, got %q", args[0])
			}

			staff, err := resolveStaff(args[1])
			if err != nil {
				return err
			}

			date, startTime := args[2], args[3]
			endTime := app.grid.EndFor(startTime)
			if endTime == "" {
				return fmt.Errorf("start time %q is not on the slot grid", startTime)
			}

			app.gateway.Assign(p, staff.ID, date, startTime, endTime)
			if !schedule.IsAvailable(*staff, date, startTime) {
				fmt.Printf("⚠️  %s is outside their normal availability for this slot.\n", staff.Name)
			}
			fmt.Printf("\nAssigned %s to %s %s-%s (%s). Run 'save' to persist.\n",
				staff.Name, date, startTime, endTime, p)
			return nil
		},
	}
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <program> <staff_name> <date> <start_time>",
		Short: "Remove a staff member from a slot",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := model.Program(args[0])
			if !p.IsValid() {
				return fmt.Errorf("program must be elementary or middle, got %q", args[0])
			}

			staff, err := resolveStaff(args[1])
			if err != nil {
				return err
			}

			if app.gateway.Remove(p, args[2], args[3], staff.ID) {
				fmt.Printf("\nRemoved %s from %s %s (%s). Run 'save' to persist.\n", staff.Name, args[2], args[3], p)
			} else {
				fmt.Printf("\nNo assignment for %s at %s %s (%s); nothing removed.\n", staff.Name, args[2], args[3], p)
			}
			return nil
		},
	}
}

func swapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "swap <program> <from_date> <from_time> <from_staff> <to_date> <to_time> <to_staff>",
		Short: "Swap the staff members of two assignments",
		Args:  cobra.ExactArgs(7),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := model.Program(args[0])
			if !p.IsValid() {
				return fmt.Errorf("program must be elementary or middle, got %q", args[0])
			}

			fromStaff, err := resolveStaff(args[3])
			if err != nil {
				return err
			}
			toStaff, err := resolveStaff(args[6])
			if err != nil {
				return err
			}

			from := schedule.Key{Date: args[1], StartTime: args[2], StaffID: fromStaff.ID}
			to := schedule.Key{Date: args[4], StartTime: args[5], StaffID: toStaff.ID}

			if err := app.gateway.Swap(p, from, to); err != nil {
				return err
			}
			fmt.Printf("\nSwapped %s and %s. Run 'save' to persist.\n", fromStaff.Name, toStaff.Name)
			return nil
		},
	}
}

func staffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff <program>",
		Short: "List qualified staff for a program with weekly hour usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := model.Program(args[0])
			if !p.IsValid() {
				return fmt.Errorf("program must be elementary or middle, got %q", args[0])
			}

			week, err := resolveWeek(cmd)
			if err != nil {
				return err
			}

			board := boardSnapshot()
			pool := services.BuildStaffPool(board, app.gateway.Staff(), p, &week, app.logger)

			if len(pool) == 0 {
				fmt.Printf("\nNo qualified staff for the %s program.\n", p)
				return nil
			}

			fmt.Printf("\nQualified staff for %s (week of %s):\n\n", p, week.Dates[0])
			for _, s := range pool {
				marker := " "
				if s.OverCap {
					marker = "!"
				}
				fmt.Printf("%s %-20s %2dh / %2dh (%dh left)  %s\n",
					marker, s.Staff.Name, s.Hours, s.Staff.MaxHours, s.RemainingHours,
					strings.Join(s.Staff.Qualifications, ", "))
				if s.Staff.Notes != "" {
					fmt.Printf("    %s\n", s.Staff.Notes)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("week", "", "Any date inside the week to count (YYYY-MM-DD, default: this week)")
	return cmd
}

func hoursCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hours <staff_name>",
		Short: "Show a staff member's assigned hours across both programs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			staff, err := resolveStaff(args[0])
			if err != nil {
				return err
			}

			total := app.gateway.HoursFor(staff.ID, model.Programs(), nil)
			elementary := app.gateway.HoursFor(staff.ID, []model.Program{model.ProgramElementary}, nil)
			middle := total - elementary

			fmt.Printf("\n%s: %dh assigned (%dh elementary, %dh middle), cap %dh.\n",
				staff.Name, total, elementary, middle, staff.MaxHours)
			return nil
		},
	}
}

func interactiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (load once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands without reloading.
The session will keep running until you type 'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("\n🚀 Starting interactive session...")
			fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to leave")

			rootCmd := cmd.Parent()
			commands := make(map[string]*cobra.Command)
			for _, subCmd := range rootCmd.Commands() {
				if subCmd.Name() != "interactive" && subCmd.Name() != "completion" && subCmd.Name() != "help" {
					commands[subCmd.Name()] = subCmd
				}
			}

			scanner := bufio.NewScanner(os.Stdin)

			for {
				fmt.Print("> ")

				if !scanner.Scan() {
					break
				}

				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				parts := strings.Fields(line)
				cmdName := parts[0]
				cmdArgs := parts[1:]

				if cmdName == "exit" || cmdName == "quit" {
					if app.gateway.Dirty() {
						fmt.Println("⚠️  Unsaved changes will be lost.")
					}
					fmt.Println("👋 Goodbye!")
					return nil
				}

				if cmdName == "help" {
					printInteractiveHelp(commands)
					continue
				}

				targetCmd, exists := commands[cmdName]
				if !exists {
					fmt.Printf("❌ Unknown command: %s (type 'help' for available commands)\n\n", cmdName)
					continue
				}

				resetFlags(targetCmd)

				// Execute the command's RunE directly, bypassing the full
				// Execute() flow so PersistentPreRunE doesn't re-init the app
				if err := targetCmd.ParseFlags(cmdArgs); err != nil {
					fmt.Printf("❌ Error parsing flags: %v\n\n", err)
					continue
				}

				cmdArgs = targetCmd.Flags().Args()

				if err := targetCmd.Args(targetCmd, cmdArgs); err != nil {
					fmt.Printf("❌ Error: %v\n\n", err)
					continue
				}

				if targetCmd.RunE != nil {
					if err := targetCmd.RunE(targetCmd, cmdArgs); err != nil {
						fmt.Printf("❌ Error: %v\n\n", err)
					}
				} else if targetCmd.Run != nil {
					targetCmd.Run(targetCmd, cmdArgs)
				}
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("error reading input: %w", err)
			}

			return nil
		},
	}

	return cmd
}

func printInteractiveHelp(commands map[string]*cobra.Command) {
	fmt.Println("\nAvailable commands:")

	for _, cmd := range commands {
		fmt.Printf("  %-55s %s\n", cmd.Use, cmd.Short)
	}

	fmt.Println("\n  help                           Show this help message")
	fmt.Println("  exit, quit                     Exit the interactive session")
}

// Helpers

// resetFlags restores a command's flags to their defaults between
// interactive invocations, so one run's flags never leak into the next
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
		if err := f.Value.Set(f.DefValue); err != nil {
			fmt.Printf("❌ Error resetting flag --%s: %v\n", f.Name, err)
		}
	})
}

// resolveStaff finds a roster member by display name
func resolveStaff(name string) (*model.Staff, error) {
	staff := app.gateway.StaffByName(name)
	if staff == nil {
		return nil, fmt.Errorf("no staff member named %q in the roster", name)
	}
	return staff, nil
}

// resolveWeek reads the --week flag, defaulting to the current week
func resolveWeek(cmd *cobra.Command) (schedule.WeekWindow, error) {
	date, _ := cmd.Flags().GetString("week")
	if date == "" {
		return schedule.WeekContainingRule(time.Now(), app.cfg.WeekRule())
	}
	return schedule.WeekOfRule(date, app.cfg.WeekRule())
}

// boardSnapshot rebuilds a board from the gateway's collections for
// read-only pool computation
func boardSnapshot() *schedule.Board {
	b := schedule.NewBoard(app.cfg.MissingKeyPolicy())
	b.Replace(
		app.gateway.Assignments(model.ProgramElementary),
		app.gateway.Assignments(model.ProgramMiddle),
	)
	return b
}

func printBoard(p model.Program, week schedule.WeekWindow) {
	fmt.Printf("\n%s camp schedule - week of %s\n\n", p, week.Dates[0])

	for _, slot := range app.grid.Slots() {
		fmt.Printf("%s-%s\n", slot.StartTime, slot.EndTime)
		for _, date := range week.Dates {
			occupants := app.gateway.AssignmentsForSlot(p, date, slot.StartTime)
			if len(occupants) == 0 {
				continue
			}

			names := make([]string, 0, len(occupants))
			for _, a := range occupants {
				name := a.StaffID
				warn := ""
				if s := app.gateway.StaffByID(a.StaffID); s != nil {
					name = s.Name
					if !schedule.IsAvailable(*s, date, slot.StartTime) {
						warn = " ⚠️"
					}
				}
				names = append(names, name+warn)
			}
			fmt.Printf("  %-9s %s: %s\n", weekdayName(date), date, strings.Join(names, ", "))
		}
	}
	fmt.Println()
}

func weekdayName(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return t.Weekday().String()
}
