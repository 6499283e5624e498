// ABOUTME: Shared CLI environment and login gate
// ABOUTME: Holds the wired stores and prompts for the password when needed
package cli

import (
	"fmt"
	"os"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"fieracrm/app"
	"fieracrm/ocr"
	"fieracrm/store"
)

// Env carries the wired dependencies into the subcommands.
type Env struct {
	Contacts  store.ContactStore
	Fieras    store.EventStore
	Extractor ocr.Extractor
	Session   *app.Session
	Logger    *zap.Logger
}

// EnsureLogin prompts for the shared password unless a persisted
// session marker already authenticates this device.
func EnsureLogin(env *Env) error {
	if env.Session.Authenticated() {
		return nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if err := env.Session.Login(string(raw)); err != nil {
		return err
	}
	return nil
}
