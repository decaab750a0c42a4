// Package cli implements memorialctl, the operator tool for the memorial
// server.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/memorial/internal/server/auth"
	"github.com/dmitrijs2005/memorial/internal/server/config"
	"github.com/dmitrijs2005/memorial/internal/server/repositories/repomanager"
)

// Seams for tests.
var (
	openDB               = repomanager.Open
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
)

var ErrUsage = errors.New("usage")

const usage = `usage: memorialctl <command> [flags]

commands:
  hash-password   read an admin password and print its bcrypt hash
  migrate         apply database migrations (server flags and MEMORIAL_* env apply)
  help            show this message
`

type App struct {
	out io.Writer
}

func NewApp(out io.Writer) *App {
	return &App{out: out}
}

// Run dispatches args[0] to a command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	switch strings.ToLower(args[0]) {
	case "hash-password":
		return a.HashPassword(ctx)
	case "migrate":
		return a.Migrate(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprintf(a.out, "unknown command %q\n\n%s", args[0], usage)
		return ErrUsage
	}
}

// HashPassword prints the value for MEMORIAL_ADMIN_PASSWORD_HASH.
func (a *App) HashPassword(_ context.Context) error {
	pw, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(pw)

	hash, err := auth.HashPassword(string(pw))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, hash)
	return err
}

// Migrate applies the embedded migrations to the configured database.
func (a *App) Migrate(ctx context.Context, args []string) error {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := newRepositoryManager().RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	_, err = fmt.Fprintln(a.out, "migrations applied")
	return err
}
