// Package taskapp is the terminal task tracker built on the termvault
// core. Business rules live here; credentials, encryption and file
// persistence come from the shared internal packages.
package taskapp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/akarpov87/termvault/internal/auth"
	"github.com/akarpov87/termvault/internal/cli"
	"github.com/akarpov87/termvault/internal/common"
	"github.com/akarpov87/termvault/internal/config"
	"github.com/akarpov87/termvault/internal/logging"
	"github.com/akarpov87/termvault/internal/storage"
)

const (
	appName = "taskapp"
	kind    = "tasks"
)

// Schema is the task record layout. Order matters: it is the CSV header.
var Schema = []string{"serial", "title", "notes", "done"}

// ConfigDefaults seeds a new user's configuration.
var ConfigDefaults = storage.Config{"nextSerial": 1.0}

// App is one running task session.
type App struct {
	*cli.App

	session *cli.Session
	rows    []storage.Row
	cfg     storage.Config
}

// NewRootCmd builds the cobra entry point.
func NewRootCmd() *cobra.Command {
	var (
		dataDir string
		cfgFile string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "taskapp",
		Short: "Per-user task tracking with optional encrypted storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(appName, cfgFile)
			if err != nil {
				return err
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if verbose {
				cfg.Verbose = true
			}

			app := &App{App: &cli.App{
				Creds: auth.NewStore(cfg.DataDir),
				Data:  storage.New(cfg.DataDir),
				Log:   logging.NewTextLogger(os.Stderr, cfg.Verbose),
				In:    bufio.NewReader(os.Stdin),
				Out:   os.Stdout,
			}}
			return app.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&dataDir, "data-dir", "d", "", "override the data directory")
	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "path to a JSON config file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	return cmd
}

// Run drives the interactive loop: authenticate first, then accept task
// commands until quit.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintln(a.Out, "Welcome to taskapp (type 'help' for commands)")

	for {
		fmt.Fprintf(a.Out, "taskapp %s> ", a.status())
		line, err := a.In.ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			return nil // EOF ends the session
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		command, args := parts[0], parts[1:]

		switch command {
		case "help":
			a.printHelp()
		case "register":
			_ = a.Register(ctx)
		case "login":
			a.login(ctx)
		case "list":
			a.list()
		case "add":
			a.add(ctx)
		case "done":
			a.toggleDone(ctx, args)
		case "rm":
			a.remove(ctx, args)
		case "quit", "exit":
			fmt.Fprintln(a.Out, "Bye!")
			return nil
		default:
			fmt.Fprintln(a.Out, "Unknown command:", command)
		}
	}
}

func (a *App) status() string {
	if a.session == nil {
		return ""
	}
	return "(" + a.session.Username + ") "
}

func (a *App) printHelp() {
	if a.session == nil {
		fmt.Fprintln(a.Out, "Available commands: register, login, quit")
		return
	}
	fmt.Fprintln(a.Out, "Available commands: list, add, done <serial>, rm <serial>, quit")
}

// login authenticates and loads the user's tasks and config. A missing
// data file is a fresh start, not an error.
func (a *App) login(ctx context.Context) {
	session, err := a.Login(ctx)
	if err != nil {
		return
	}

	rows, err := a.Data.LoadRecords(session.Username, kind, Schema, session.Mode)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		a.PrintError("loading tasks: " + err.Error())
		return
	}

	cfg, err := a.Data.LoadConfig(session.Username, ConfigDefaults, session.Mode)
	if err != nil {
		a.PrintError("loading config: " + err.Error())
		return
	}

	a.session, a.rows, a.cfg = session, rows, cfg
}

func (a *App) requireLogin() bool {
	if a.session == nil {
		a.PrintError("login first")
		return false
	}
	return true
}

// persist is the post-mutation hook: it synchronously rewrites both the
// record file and the config and surfaces any error immediately.
func (a *App) persist(ctx context.Context) error {
	if err := a.Data.SaveRecords(a.session.Username, kind, a.rows, Schema, a.session.Mode); err != nil {
		a.PrintError("saving tasks: " + err.Error())
		return err
	}
	if err := a.Data.SaveConfig(a.session.Username, a.cfg, a.session.Mode); err != nil {
		a.PrintError("saving config: " + err.Error())
		return err
	}
	a.Log.Debug(ctx, "saved", "user", a.session.Username, "tasks", len(a.rows))
	return nil
}

func (a *App) list() {
	if !a.requireLogin() {
		return
	}
	if len(a.rows) == 0 {
		fmt.Fprintln(a.Out, "No tasks yet.")
		return
	}
	for _, row := range storage.SortRowsBySerial(a.rows, "serial", true) {
		marker := color.YellowString("·")
		if row["done"] == "true" {
			marker = color.GreenString("✓")
		}
		line := fmt.Sprintf("%s #%s %s", marker, row["serial"], row["title"])
		if row["notes"] != "" {
			line += " | " + row["notes"]
		}
		fmt.Fprintln(a.Out, line)
	}
}

func (a *App) add(ctx context.Context) {
	if !a.requireLogin() {
		return
	}

	title, err := cli.GetSimpleText(a.In, "Title", a.Out)
	if err != nil || title == "" {
		a.PrintError("a title is required")
		return
	}
	notes, err := cli.GetSimpleText(a.In, "Notes (optional)", a.Out)
	if err != nil {
		return
	}

	serial := AllocateSerial(a.cfg)
	a.rows = append(a.rows, storage.Row{
		"serial": fmt.Sprint(serial),
		"title":  title,
		"notes":  notes,
		"done":   "false",
	})

	if a.persist(ctx) == nil {
		a.PrintSuccess(fmt.Sprintf("Task #%d added", serial))
	}
}

func (a *App) toggleDone(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(a.Out, "Usage: done <serial>")
		return
	}

	row := findBySerial(a.rows, args[0])
	if row == nil {
		a.PrintError("no task with serial " + args[0])
		return
	}

	if row["done"] == "true" {
		row["done"] = "false"
	} else {
		row["done"] = "true"
	}

	if a.persist(ctx) == nil {
		a.PrintSuccess("Task #" + args[0] + " updated")
	}
}

func (a *App) remove(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(a.Out, "Usage: rm <serial>")
		return
	}

	kept := a.rows[:0]
	removed := false
	for _, row := range a.rows {
		if row["serial"] == args[0] {
			removed = true
			continue
		}
		kept = append(kept, row)
	}
	if !removed {
		a.PrintError("no task with serial " + args[0])
		return
	}
	a.rows = kept

	if a.persist(ctx) == nil {
		a.PrintSuccess("Task #" + args[0] + " removed")
	}
}

// AllocateSerial returns the next serial from cfg and advances the
// counter. JSON numbers arrive as float64; a missing or malformed value
// restarts the counter at 1.
func AllocateSerial(cfg storage.Config) int {
	next := 1
	switch v := cfg["nextSerial"].(type) {
	case float64:
		next = int(v)
	case int:
		next = v
	}
	if next < 1 {
		next = 1
	}
	cfg["nextSerial"] = float64(next + 1)
	return next
}

func findBySerial(rows []storage.Row, serial string) storage.Row {
	for _, row := range rows {
		if row["serial"] == serial {
			return row
		}
	}
	return nil
}
