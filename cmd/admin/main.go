// Command admin resets a user's password directly in the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/geradorclientes/internal/admin"
	"github.com/JonMunkholm/geradorclientes/internal/auth"
	"github.com/JonMunkholm/geradorclientes/internal/config"
	"github.com/JonMunkholm/geradorclientes/internal/core"
	"github.com/JonMunkholm/geradorclientes/internal/logging"
	"github.com/JonMunkholm/geradorclientes/internal/users"
)

func main() {
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "new password")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()
	store, err := users.Open(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open user store", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := admin.ResetPassword(ctx, store, *email, *password); err != nil {
		msg := err.Error()
		if core.IsUserFacing(err) {
			msg = core.FormatUserError(err)
		}
		fmt.Fprintln(os.Stderr, msg)
		store.Close()
		os.Exit(1)
	}
	fmt.Println("senha atualizada para", auth.NormalizeEmail(*email))
}
