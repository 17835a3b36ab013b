package budgetapp

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akarpov87/termvault/internal/auth"
	"github.com/akarpov87/termvault/internal/cli"
	"github.com/akarpov87/termvault/internal/logging"
	"github.com/akarpov87/termvault/internal/storage"
)

func newLoggedInApp(t *testing.T, input string, mode storage.Mode) (*App, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	var out bytes.Buffer

	app := &App{App: &cli.App{
		Creds: auth.NewStore(dir),
		Data:  storage.New(dir),
		Log:   logging.NewTextLogger(&out, false),
		In:    bufio.NewReader(strings.NewReader(input)),
		Out:   &out,
	}}
	app.session = &cli.Session{Username: "bob", Mode: mode}
	app.cfg = storage.Config{"monthlyBudget": 0.0, "nextSerial": 1.0}
	return app, &out
}

func TestAdd_PersistsExpense(t *testing.T) {
	app, _ := newLoggedInApp(t, "2026-08-20\ngroceries\n42.50\nweekly shop\n", storage.PlainMode())

	app.add(context.Background())

	require.Len(t, app.rows, 1)
	require.Equal(t, storage.Row{
		"serial":      "1",
		"date":        "2026-08-20",
		"category":    "groceries",
		"amount":      "42.50",
		"description": "weekly shop",
	}, app.rows[0])

	rows, err := app.Data.LoadRecords("bob", kind, Schema, storage.PlainMode())
	require.NoError(t, err)
	require.Equal(t, app.rows, rows)
}

func TestAdd_EmptyDateDefaultsToToday(t *testing.T) {
	app, _ := newLoggedInApp(t, "\nfood\n10\n\n", storage.PlainMode())

	app.add(context.Background())

	require.Len(t, app.rows, 1)
	require.Equal(t, time.Now().Format("2006-01-02"), app.rows[0]["date"])
}

func TestAdd_RejectsBadInput(t *testing.T) {
	// Bad date, empty category, malformed amount, negative amount.
	for _, input := range []string{
		"not-a-date\n",
		"2026-08-20\n\n",
		"2026-08-20\nfood\nNaN?\n",
		"2026-08-20\nfood\n-5\n",
	} {
		app, out := newLoggedInApp(t, input, storage.PlainMode())
		app.add(context.Background())
		require.Empty(t, app.rows, "input %q should not add a row", input)
		require.Contains(t, out.String(), "✗")
	}
}

func TestSetBudgetAndConfigRoundTrip(t *testing.T) {
	app, _ := newLoggedInApp(t, "", storage.PlainMode())

	app.setBudget(context.Background(), []string{"2000"})

	cfg, err := app.Data.LoadConfig("bob", nil, storage.PlainMode())
	require.NoError(t, err)
	require.Equal(t, 2000.0, cfg["monthlyBudget"])
	require.Equal(t, 1.0, cfg["nextSerial"])
}

func TestMonthTotal(t *testing.T) {
	rows := []storage.Row{
		{"date": "2026-08-01", "amount": "10.50"},
		{"date": "2026-08-15", "amount": "4.50"},
		{"date": "2026-07-31", "amount": "100.00"},
		{"date": "2026-08-02", "amount": "junk"},
	}

	require.InDelta(t, 15.0, MonthTotal(rows, "2026-08"), 1e-9)
	require.InDelta(t, 100.0, MonthTotal(rows, "2026-07"), 1e-9)
	require.Zero(t, MonthTotal(rows, "2026-06"))
}

func TestBudgetFromConfig(t *testing.T) {
	require.Equal(t, 2000.0, BudgetFromConfig(storage.Config{"monthlyBudget": 2000.0}))
	require.Zero(t, BudgetFromConfig(storage.Config{}))
	require.Zero(t, BudgetFromConfig(storage.Config{"monthlyBudget": "oops"}))
}

func TestAllocateSerial(t *testing.T) {
	cfg := storage.Config{"nextSerial": 5.0}
	require.Equal(t, 5, AllocateSerial(cfg))
	require.Equal(t, 6.0, cfg["nextSerial"])
}

func TestRemove_UnknownSerial(t *testing.T) {
	app, out := newLoggedInApp(t, "", storage.PlainMode())
	app.rows = []storage.Row{{"serial": "1", "date": "2026-08-01", "category": "x", "amount": "1.00", "description": ""}}

	app.remove(context.Background(), []string{"9"})
	require.Contains(t, out.String(), "no expense with serial 9")
	require.Len(t, app.rows, 1)
}

func TestEncryptedSessionRoundTrip(t *testing.T) {
	password := []byte("p@ss1234")
	app, _ := newLoggedInApp(t, "2026-08-20\nrent\n900\n\n", storage.EncryptedMode(password))

	app.add(context.Background())

	rows, err := app.Data.LoadRecords("bob", kind, Schema, storage.EncryptedMode(password))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "rent", rows[0]["category"])
}
