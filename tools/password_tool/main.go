// Command password_tool sets or resets a user's password directly in the
// Sentinel user database, creating the account when it does not exist.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"sentinel/internal/config"
	"sentinel/internal/db"
	"sentinel/internal/manager"
	"sentinel/internal/middleware"
	"sentinel/internal/models"
	"sentinel/internal/utils"
)

const minPasswordLength = 8

func main() {
	configPath := flag.String("config", "config/sentinel.config", "Path to sentinel.config")
	username := flag.String("username", "admin", "Username to update or create")
	email := flag.String("email", "", "Email for a newly created user (default <username>@localhost)")
	superuser := flag.Bool("superuser", true, "Grant superuser when creating the user")
	password := flag.String("password", "", "New password (leave blank to type securely)")
	flag.Parse()

	if strings.TrimSpace(*username) == "" {
		fail("username cannot be empty")
	}

	cfg, err := config.Load(strings.TrimSpace(*configPath))
	if err != nil {
		fail("failed to load config: %v", err)
	}
	paths := utils.NewPaths(cfg.RootPath)
	dbPath := paths.Resolve(cfg.DatabasePath)
	if dbPath == "" {
		dbPath = paths.DatabaseFile()
	}
	if err := paths.EnsureDirs(); err != nil {
		fail("%v", err)
	}

	sqldb, err := db.Open(dbPath)
	if err != nil {
		fail("failed to open user database: %v", err)
	}
	defer sqldb.Close()
	if err := db.Migrate(sqldb); err != nil {
		fail("failed to migrate user database: %v", err)
	}
	store := manager.NewUserStore(db.NewRepository(sqldb))

	pwd, err := resolvePassword(*password)
	if err != nil {
		fail("password error: %v", err)
	}

	auth := middleware.NewAuthService(middleware.AuthOptions{Secret: cfg.SecretKey})
	hash, err := auth.HashPassword(pwd)
	if err != nil {
		fail("failed to hash password: %v", err)
	}

	ctx := context.Background()
	err = store.SetPassword(ctx, *username, hash)
	switch {
	case errors.Is(err, manager.ErrUserNotFound):
		mail := strings.TrimSpace(*email)
		if mail == "" {
			mail = *username + "@localhost"
		}
		in := models.UserCreate{Email: mail, Username: *username}
		if _, err := store.CreateUser(ctx, in, hash, *superuser); err != nil {
			fail("failed to create user: %v", err)
		}
		fmt.Printf("Created user %s (superuser=%t).\n", *username, *superuser)
	case err != nil:
		fail("failed to update password: %v", err)
	default:
		fmt.Printf("Updated password for %s.\n", *username)
	}

	fmt.Printf("database: %s\n", dbPath)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func resolvePassword(input string) (string, error) {
	if trimmed := strings.TrimSpace(input); trimmed != "" {
		return checkPassword(trimmed)
	}

	first, err := utils.PromptPassword("Enter new password: ")
	if err != nil {
		return "", err
	}
	second, err := utils.PromptPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("passwords do not match")
	}
	return checkPassword(first)
}

func checkPassword(p string) (string, error) {
	if len(p) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return p, nil
}
