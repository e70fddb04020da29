// Command adduser provisions a login for the web app.
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

	"spendly/internal/auth"
	"spendly/internal/config"
	"spendly/internal/models"
	"spendly/internal/storage"

	"golang.org/x/term"
)

const usage = "Usage: adduser -user <username> [-password <password>] [-age <years>] [-db <db_path>]"

type options struct {
	username string
	password string
	dbPath   string
	age      int
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseOptions(args, stdout, stderr)
	if err != nil {
		return err
	}

	if opts.password == "" {
		fmt.Fprint(stdout, "Password: ")
		opts.password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(opts.password) == "" {
		return errors.New("password cannot be empty")
	}

	// Without -db the path comes from the environment or .env
	if opts.dbPath == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		opts.dbPath = cfg.DBPath
	}

	db, err := storage.NewDB(opts.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	user, err := addUser(context.Background(), db, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "User %s created successfully with ID %s\n", user.Username, user.ID)
	return nil
}

func parseOptions(args []string, stdout, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.username, "user", "", "Username")
	fs.StringVar(&opts.password, "password", "", "Password (optional, will prompt if omitted)")
	fs.StringVar(&opts.dbPath, "db", "", "Path to database file (defaults to DB_PATH)")
	fs.IntVar(&opts.age, "age", 0, "Age of the user (optional)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.username == "" {
		fmt.Fprintln(stdout, usage)
		fs.PrintDefaults()
		return nil, errors.New("missing required flags: user")
	}
	if opts.age < 0 {
		return nil, errors.New("age cannot be negative")
	}
	return &opts, nil
}

// addUser creates the account unless the username is taken. An age of zero
// is stored as unknown.
func addUser(ctx context.Context, db *storage.DB, opts *options) (*models.User, error) {
	_, err := db.GetUserByUsername(ctx, opts.username)
	switch {
	case err == nil:
		return nil, fmt.Errorf("user %s already exists", opts.username)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := auth.HashPassword(opts.password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var age *int
	if opts.age > 0 {
		age = &opts.age
	}
	user, err := db.CreateUser(ctx, opts.username, hash, age)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// readPassword reads without echo from a terminal, or a single line otherwise.
func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
