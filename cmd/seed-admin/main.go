package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"wedding-rsvp/internal/auth"
	authdb "wedding-rsvp/internal/auth/db"
	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/database"
	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/mongodb"

	"github.com/joho/godotenv"
)

func main() {
	username := flag.String("username", "", "admin username (defaults to ADMIN_USERNAME)")
	email := flag.String("email", "", "admin email")
	passwordStdin := flag.Bool("password-stdin", false, "read the password from stdin instead of ADMIN_PASSWORD")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.NewWriterLogger(os.Stdout)

	if *username == "" {
		*username = cfg.Auth.AdminUsername
	}
	password := cfg.Auth.AdminPassword
	if *passwordStdin {
		var err error
		if password, err = readPassword(os.Stdin); err != nil {
			log.Error("SEED", err.Error())
			os.Exit(2)
		}
	}

	if err := run(context.Background(), cfg, log, *username, password, *email); err != nil {
		log.Error("SEED", err.Error())
		os.Exit(1)
	}
}

// run creates the admin user; an existing username only warns.
func run(ctx context.Context, cfg *config.Config, log *logger.Logger, username, password, email string) error {
	user, err := models.NewAdminUser(username, password, email)
	if err != nil {
		return err
	}

	store, closeStore, err := openAdminStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	return seedAdmin(ctx, store, user, log)
}

func seedAdmin(ctx context.Context, store auth.AdminStore, user *models.AdminUser, log *logger.Logger) error {
	switch err := store.Create(ctx, user); {
	case errors.Is(err, models.ErrDuplicateAdmin):
		log.Warn("SEED", fmt.Sprintf("Admin %q already exists", user.Username))
	case err != nil:
		return fmt.Errorf("create admin: %w", err)
	default:
		log.LogSecurity("ADMIN_CREATED", fmt.Sprintf("user=%s email=%s", user.Username, user.Email))
	}
	return nil
}

// readPassword takes the first line of r.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("read password: empty input")
	}
	return password, nil
}

func openAdminStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (auth.AdminStore, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, db, err := mongodb.Connect(ctx, cfg.Mongo, log)
		if err != nil {
			return nil, nil, err
		}
		return mongodb.NewAdminStore(db), func() { _ = client.Disconnect(context.Background()) }, nil
	case config.DriverPostgres:
		bunDB, err := database.OpenPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		return authdb.New(bunDB), func() { bunDB.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Database.Driver)
}
