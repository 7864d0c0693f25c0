// Command admin runs maintenance tasks that are never exposed over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/sbilibin2017/gw-notes/internal/images"
	"github.com/sbilibin2017/gw-notes/internal/logger"
	"github.com/sbilibin2017/gw-notes/internal/models"
	"github.com/sbilibin2017/gw-notes/internal/repositories"
	"github.com/sbilibin2017/gw-notes/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// UserRemover deletes a user by username or email.
type UserRemover interface {
	DeleteUserByLogin(ctx context.Context, login string) (*models.UserDB, error)
}

type options struct {
	configPath string
	deleteUser string
}

func main() {
	opts := parseFlags(os.Args[1:])
	if opts.deleteUser == "" {
		fmt.Fprintln(os.Stderr, "usage: admin [-c config.env] -delete-user <username>")
		os.Exit(2)
	}

	if err := run(context.Background(), opts); err != nil {
		log.Fatalf("admin: %v", err)
	}
}

// parseFlags parses the command-line flags.
func parseFlags(args []string) options {
	var opts options
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	fs.StringVar(&opts.configPath, "c", "config.env", "Path to configuration file")
	fs.StringVar(&opts.deleteUser, "delete-user", "", "Delete the user with this username or email, with all notes and images")
	_ = fs.Parse(args)
	return opts
}

// parseConfig returns the PostgreSQL DSN and the upload directory.
func parseConfig(path string) (dsn, uploadDir string, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	port, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		return "", "", fmt.Errorf("POSTGRES_PORT: %w", err)
	}
	dsn = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		getEnv("POSTGRES_USER", "user"),
		getEnv("POSTGRES_PASSWORD", "password"),
		getEnv("POSTGRES_HOST", "localhost"),
		port,
		getEnv("POSTGRES_DB", "database"),
	)
	return dsn, getEnv("UPLOAD_DIR", "uploads"), nil
}

func run(ctx context.Context, opts options) error {
	if err := logger.Initialize(getLogLevel(), false); err != nil {
		return err
	}
	defer logger.Log.Sync()

	dsn, uploadDir, err := parseConfig(opts.configPath)
	if err != nil {
		return err
	}

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return fmt.Errorf("postgres connection error: %w", err)
	}
	defer db.Close()

	storage, err := images.New(uploadDir)
	if err != nil {
		return err
	}

	userReadRepo := repositories.NewUserReadRepository(db, nil)
	userWriteRepo := repositories.NewUserWriteRepository(db, nil)
	noteReadRepo := repositories.NewNoteReadRepository(db, nil)

	svc := services.NewAccountService(userReadRepo, userWriteRepo, noteReadRepo, storage)
	return deleteUser(ctx, svc, opts.deleteUser, os.Stdout)
}

func getLogLevel() string {
	if lvl := os.Getenv("APP_LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "warn"
}

// deleteUser removes the user and reports the result to out.
func deleteUser(ctx context.Context, svc UserRemover, login string, out io.Writer) error {
	user, err := svc.DeleteUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return fmt.Errorf("user %q not found", login)
		}
		return err
	}
	fmt.Fprintf(out, "Deleted user %s (id %d) with all notes and images\n", user.Username, user.ID)
	return nil
}
