// Package cli implements the sarc operator commands over the domain store.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

// ErrNotSignedIn is returned by commands that need a session when nobody is
// signed in.
var ErrNotSignedIn = errors.New("not signed in, run: sarc user login")

// Opener builds the command environment. opts carries what the root flags
// requested.
type Opener func(ctx context.Context, opts EnvOptions) (*Env, error)

// App holds the lazily opened Env shared by one command invocation.
type App struct {
	out       io.Writer
	open      Opener
	env       *Env
	tracePath string
	trace     *os.File
}

// NewApp returns an App that prints to out and opens its Env with open.
func NewApp(out io.Writer, open Opener) *App {
	return &App{out: out, open: open}
}

func (a *App) printer() printer { return printer{w: a.out} }

// Env opens the environment on first use.
func (a *App) Env(ctx context.Context) (*Env, error) {
	if a.env != nil {
		return a.env, nil
	}
	var opts EnvOptions
	if a.tracePath != "" {
		f, err := os.OpenFile(a.tracePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		a.trace = f
		opts.Trace = f
	}
	env, err := a.open(ctx, opts)
	if err != nil {
		return nil, err
	}
	a.env = env
	return env, nil
}

// Close releases the Env, if one was opened.
func (a *App) Close() error {
	var errs []error
	if a.env != nil {
		errs = append(errs, a.env.Close())
		a.env = nil
	}
	if a.trace != nil {
		errs = append(errs, a.trace.Close())
		a.trace = nil
	}
	return errors.Join(errs...)
}

// signedIn opens the Env and returns the current user.
func (a *App) signedIn(ctx context.Context) (*Env, domain.User, error) {
	env, err := a.Env(ctx)
	if err != nil {
		return nil, domain.User{}, err
	}
	user, ok := env.Session.CurrentUser()
	if !ok {
		return nil, domain.User{}, ErrNotSignedIn
	}
	return env, user, nil
}

// requireRole is signedIn plus a role check.
func (a *App) requireRole(ctx context.Context, role domain.Role) (*Env, domain.User, error) {
	env, user, err := a.signedIn(ctx)
	if err != nil {
		return nil, domain.User{}, err
	}
	if !env.Session.HasRole(role) {
		return nil, domain.User{}, fmt.Errorf("%s role required, signed in as %s (%s)", role, user.Username, user.Role)
	}
	return env, user, nil
}

// NewRootCommand assembles the sarc command tree.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "sarc",
		Short: "SARC - field sales routes, clients and surveys",
		Long: `sarc manages advisors, clients, visit routes and satisfaction surveys.

State is kept in a blob store selected by SARC_BLOB_DRIVER
(fs, memory, s3, sqlite, postgres, mysql, redis) and saved after
every change. Sign in first with: sarc user login`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&app.tracePath, "trace", "", "Append one JSON line per store operation to this file")

	root.AddCommand(
		newSeedCommand(app),
		newDashboardCommand(app),
		newReportCommand(app),
		newAdvisorCommand(app),
		newClientCommand(app),
		newRouteCommand(app),
		newSurveyCommand(app),
		newExportCommand(app),
		newUserCommand(app),
	)
	return root
}

// Execute runs the command tree with args and closes the Env afterwards.
func Execute(ctx context.Context, app *App, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if cerr := app.Close(); err == nil {
		err = cerr
	}
	return err
}
