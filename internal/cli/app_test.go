package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akarpov87/termvault/internal/auth"
	"github.com/akarpov87/termvault/internal/common"
	"github.com/akarpov87/termvault/internal/logging"
	"github.com/akarpov87/termvault/internal/storage"
)

func newTestApp(t *testing.T, input string) (*App, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	var out bytes.Buffer
	return &App{
		Creds: auth.NewStore(dir),
		Data:  storage.New(dir),
		Log:   logging.NewTextLogger(&out, false),
		In:    bufio.NewReader(strings.NewReader(input)),
		Out:   &out,
	}, &out
}

func TestRegisterThenLogin_EncryptedAccount(t *testing.T) {
	stubPassword(t, []byte("p@ss1234"))
	ctx := context.Background()

	// Register: username + "encrypt? yes".
	app, _ := newTestApp(t, "alice\ny\n")
	require.NoError(t, app.Register(ctx))

	// Login against the same store.
	app.In = bufio.NewReader(strings.NewReader("alice\n"))
	session, err := app.Login(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice", session.Username)
	require.True(t, session.Mode.IsEncrypted())
}

func TestRegisterThenLogin_PlaintextAccount(t *testing.T) {
	stubPassword(t, []byte("pw"))
	ctx := context.Background()

	app, _ := newTestApp(t, "bob\nn\n")
	require.NoError(t, app.Register(ctx))

	app.In = bufio.NewReader(strings.NewReader("bob\n"))
	session, err := app.Login(ctx)
	require.NoError(t, err)
	require.False(t, session.Mode.IsEncrypted())
}

func TestLogin_UnknownUser(t *testing.T) {
	stubPassword(t, []byte("pw"))

	app, out := newTestApp(t, "ghost\n")
	_, err := app.Login(context.Background())
	require.ErrorIs(t, err, common.ErrUnknownUser)
	require.Contains(t, out.String(), "✗")
}

func TestRegister_DuplicateReportsError(t *testing.T) {
	stubPassword(t, []byte("pw"))
	ctx := context.Background()

	app, _ := newTestApp(t, "alice\nn\n")
	require.NoError(t, app.Register(ctx))

	app.In = bufio.NewReader(strings.NewReader("alice\nn\n"))
	err := app.Register(ctx)
	require.ErrorIs(t, err, common.ErrUsernameTaken)
}
