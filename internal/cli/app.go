// Package cli holds the interactive session plumbing shared by the
// terminal apps: credential prompts, the login/register flows and the
// busy indicator around the deliberately slow hashing and key-derivation
// calls.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/akarpov87/termvault/internal/auth"
	"github.com/akarpov87/termvault/internal/common"
	"github.com/akarpov87/termvault/internal/logging"
	"github.com/akarpov87/termvault/internal/storage"
)

// Session is the state between a successful login and exit. The plaintext
// password survives only inside Mode, and only for encrypted accounts;
// it is passed explicitly to every load/save.
type Session struct {
	Username string
	Mode     storage.Mode
}

// App bundles the collaborators an interactive app needs.
type App struct {
	Creds *auth.Store
	Data  *storage.DAL
	Log   logging.Logger
	In    *bufio.Reader
	Out   io.Writer
}

// RunWithSpinner shows a busy indicator while fn runs. Register, Verify
// and every encrypted load/save take tens to hundreds of milliseconds;
// the spinner is the required "busy" signal for the interactive caller.
func (a *App) RunWithSpinner(suffix string, fn func() error) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.Out))
	s.Suffix = " " + suffix
	s.Start()
	defer s.Stop()
	return fn()
}

// Register interactively creates an account, asking whether data files
// should be encrypted. The preference is fixed at registration.
func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.In, "Choose a username", a.Out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.Out, "Choose a password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	encrypt, err := Confirm(a.In, "Encrypt your data files?", a.Out)
	if err != nil {
		return err
	}

	err = a.RunWithSpinner("Creating account...", func() error {
		return a.Creds.Register(username, string(password), encrypt)
	})
	if err != nil {
		a.PrintError(err.Error())
		return err
	}

	a.Log.Info(ctx, "user registered", "user", username, "encrypted", encrypt)
	a.PrintSuccess(fmt.Sprintf("Account %q created", username))
	return nil
}

// Login prompts for credentials and verifies them against the store. On
// success it returns the session with the storage mode selected from the
// user's stored preference. For plaintext accounts the password buffer is
// wiped before returning.
func (a *App) Login(ctx context.Context) (*Session, error) {
	username, err := GetSimpleText(a.In, "Username", a.Out)
	if err != nil {
		return nil, err
	}

	password, err := GetPassword(a.Out, "Password: ")
	if err != nil {
		return nil, err
	}

	var profile *auth.Profile
	err = a.RunWithSpinner("Verifying credentials...", func() error {
		p, verr := a.Creds.Verify(username, string(password))
		profile = p
		return verr
	})
	if err != nil {
		common.WipeByteArray(password)
		a.PrintError(err.Error())
		return nil, err
	}

	mode := storage.PlainMode()
	if profile.EncryptionEnabled {
		mode = storage.EncryptedMode(password)
	} else {
		common.WipeByteArray(password)
	}

	a.Log.Info(ctx, "user logged in", "user", username, "encrypted", profile.EncryptionEnabled)
	a.PrintSuccess(fmt.Sprintf("Welcome, %s", username))
	return &Session{Username: username, Mode: mode}, nil
}

func (a *App) PrintSuccess(msg string) {
	fmt.Fprintln(a.Out, color.GreenString("✓")+" "+msg)
}

func (a *App) PrintError(msg string) {
	fmt.Fprintln(a.Out, color.RedString("✗")+" "+msg)
}
