// Command sarc is the operator CLI for the SARC field-sales store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/cli"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/config"
)

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	exitFunc(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, cli.ErrorText(err))
		return 2
	}
	app := cli.NewApp(stdout, func(ctx context.Context, opts cli.EnvOptions) (*cli.Env, error) {
		opts.Logs = stderr
		return cli.OpenEnv(ctx, cfg, opts)
	})
	if err := cli.Execute(ctx, app, args, stdout, stderr); err != nil {
		fmt.Fprintln(stderr, cli.ErrorText(err))
		return 1
	}
	return 0
}
