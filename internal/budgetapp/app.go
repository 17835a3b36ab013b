// Package budgetapp is the terminal expense tracker built on the
// termvault core: per-user expense records, a monthly budget option and
// optional encrypted storage.
package budgetapp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

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
	appName = "budgetapp"
	kind    = "expenses"
)

// Schema is the expense record layout; dates are ISO yyyy-mm-dd strings.
var Schema = []string{"serial", "date", "category", "amount", "description"}

// ConfigDefaults seeds a new user's configuration.
var ConfigDefaults = storage.Config{"monthlyBudget": 0.0, "nextSerial": 1.0}

// App is one running budget session.
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
		Use:   "budgetapp",
		Short: "Per-user expense tracking with optional encrypted storage",
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

// Run drives the interactive loop.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintln(a.Out, "Welcome to budgetapp (type 'help' for commands)")

	for {
		fmt.Fprintf(a.Out, "budgetapp %s> ", a.status())
		line, err := a.In.ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			return nil
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
		case "rm":
			a.remove(ctx, args)
		case "budget":
			a.setBudget(ctx, args)
		case "summary":
			a.summary()
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
	fmt.Fprintln(a.Out, "Available commands: list, add, rm <serial>, budget <amount>, summary, quit")
}

func (a *App) login(ctx context.Context) {
	session, err := a.Login(ctx)
	if err != nil {
		return
	}

	rows, err := a.Data.LoadRecords(session.Username, kind, Schema, session.Mode)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		a.PrintError("loading expenses: " + err.Error())
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

// persist is the post-mutation hook shared by all commands.
func (a *App) persist(ctx context.Context) error {
	if err := a.Data.SaveRecords(a.session.Username, kind, a.rows, Schema, a.session.Mode); err != nil {
		a.PrintError("saving expenses: " + err.Error())
		return err
	}
	if err := a.Data.SaveConfig(a.session.Username, a.cfg, a.session.Mode); err != nil {
		a.PrintError("saving config: " + err.Error())
		return err
	}
	a.Log.Debug(ctx, "saved", "user", a.session.Username, "expenses", len(a.rows))
	return nil
}

func (a *App) list() {
	if !a.requireLogin() {
		return
	}
	if len(a.rows) == 0 {
		fmt.Fprintln(a.Out, "No expenses yet.")
		return
	}
	for _, row := range storage.SortRowsBySerial(a.rows, "serial", true) {
		fmt.Fprintf(a.Out, "#%s %s %s %s %s\n",
			row["serial"], row["date"], color.CyanString(row["category"]),
			row["amount"], row["description"])
	}
}

func (a *App) add(ctx context.Context) {
	if !a.requireLogin() {
		return
	}

	date, err := cli.GetSimpleText(a.In, "Date (yyyy-mm-dd, empty for today)", a.Out)
	if err != nil {
		return
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, perr := time.Parse("2006-01-02", date); perr != nil {
		a.PrintError("invalid date: " + date)
		return
	}

	category, err := cli.GetSimpleText(a.In, "Category", a.Out)
	if err != nil || category == "" {
		a.PrintError("a category is required")
		return
	}

	amountText, err := cli.GetSimpleText(a.In, "Amount", a.Out)
	if err != nil {
		return
	}
	amount, perr := strconv.ParseFloat(amountText, 64)
	if perr != nil || amount < 0 {
		a.PrintError("invalid amount: " + amountText)
		return
	}

	description, err := cli.GetSimpleText(a.In, "Description (optional)", a.Out)
	if err != nil {
		return
	}

	serial := AllocateSerial(a.cfg)
	a.rows = append(a.rows, storage.Row{
		"serial":      fmt.Sprint(serial),
		"date":        date,
		"category":    category,
		"amount":      strconv.FormatFloat(amount, 'f', 2, 64),
		"description": description,
	})

	if a.persist(ctx) == nil {
		a.PrintSuccess(fmt.Sprintf("Expense #%d added", serial))
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
		a.PrintError("no expense with serial " + args[0])
		return
	}
	a.rows = kept

	if a.persist(ctx) == nil {
		a.PrintSuccess("Expense #" + args[0] + " removed")
	}
}

func (a *App) setBudget(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(a.Out, "Usage: budget <amount>")
		return
	}

	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil || amount < 0 {
		a.PrintError("invalid amount: " + args[0])
		return
	}

	a.cfg["monthlyBudget"] = amount
	if a.persist(ctx) == nil {
		a.PrintSuccess(fmt.Sprintf("Monthly budget set to %.2f", amount))
	}
}

func (a *App) summary() {
	if !a.requireLogin() {
		return
	}

	month := time.Now().Format("2006-01")
	spent := MonthTotal(a.rows, month)
	budget := BudgetFromConfig(a.cfg)

	fmt.Fprintf(a.Out, "Spent in %s: %.2f\n", month, spent)
	if budget <= 0 {
		fmt.Fprintln(a.Out, "No monthly budget set.")
		return
	}

	remaining := budget - spent
	if remaining >= 0 {
		fmt.Fprintf(a.Out, "Budget %.2f, remaining %s\n", budget, color.GreenString("%.2f", remaining))
	} else {
		fmt.Fprintf(a.Out, "Budget %.2f, over by %s\n", budget, color.RedString("%.2f", -remaining))
	}
}

// AllocateSerial returns the next serial from cfg and advances the
// counter, mirroring the task app's allocation.
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

// MonthTotal sums the amounts of all rows whose date falls in the given
// yyyy-mm month. Malformed amounts count as zero.
func MonthTotal(rows []storage.Row, month string) float64 {
	var total float64
	for _, row := range rows {
		if !strings.HasPrefix(row["date"], month+"-") {
			continue
		}
		amount, err := strconv.ParseFloat(row["amount"], 64)
		if err != nil {
			continue
		}
		total += amount
	}
	return total
}

// BudgetFromConfig extracts the monthly budget option; missing or
// malformed values read as zero (no budget set).
func BudgetFromConfig(cfg storage.Config) float64 {
	if v, ok := cfg["monthlyBudget"].(float64); ok {
		return v
	}
	return 0
}
