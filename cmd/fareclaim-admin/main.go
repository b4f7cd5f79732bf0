// Command fareclaim-admin manages users and the fare table out of band.
//
//	fareclaim-admin [-backend sqlite|postgres] [-db path] [-database-url url] <command>
//
// Commands:
//
//	adduser -user <name> [-password <password>]
//	fares import <file.csv>
//	fares list
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"fareclaim/internal/app"
	"fareclaim/internal/backend"
	"fareclaim/internal/config"
	applog "fareclaim/internal/log"

	"golang.org/x/term"
)

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
	cfg := config.Load()

	fs := flag.NewFlagSet("fareclaim-admin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.DataBackend, "backend", cfg.DataBackend, "Storage backend (sqlite or postgres)")
	fs.StringVar(&cfg.SQLiteDBPath, "db", cfg.SQLiteDBPath, "Path to the SQLite database file")
	fs.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "PostgreSQL connection string")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: fareclaim-admin [flags] adduser|fares <args>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}
	if cfg.DataBackend == config.BackendMemory {
		return errors.New("admin commands need a persistent backend: use -backend sqlite or -backend postgres")
	}

	logCfg := applog.DefaultConfig()
	logCfg.Level = slog.LevelWarn
	logCfg.Output = stderr
	logger := applog.New(logCfg)
	ctx := applog.NewContext(context.Background(), logger)

	stores, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer stores.Close() //nolint:errcheck

	cmdArgs := fs.Args()[1:]
	switch fs.Arg(0) {
	case "adduser":
		return runAddUser(ctx, stores, cmdArgs, stdin, stdout, stderr)
	case "fares":
		return runFares(ctx, stores, cmdArgs, stdout)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", fs.Arg(0))
	}
}

func runAddUser(ctx context.Context, stores *backend.Stores, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)
	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprintln(stdout, "Usage: fareclaim-admin adduser -user <username> [-password <password>]")
		fs.PrintDefaults()
		return errors.New("missing required flags: user")
	}

	existing, err := stores.Users.GetByUsername(ctx, *username)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("user %s already exists", *username)
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	auth := app.NewAuthService(stores.Users, stores.Sessions)
	user, err := auth.CreateUser(ctx, *username, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Username, user.ID)
	return nil
}

func runFares(ctx context.Context, stores *backend.Stores, args []string, stdout io.Writer) error {
	svc := app.NewFareRuleService(stores.Fares)
	if len(args) == 0 {
		return errors.New("usage: fareclaim-admin fares import <file.csv> | fares list")
	}

	switch args[0] {
	case "import":
		if len(args) != 2 {
			return errors.New("usage: fareclaim-admin fares import <file.csv>")
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close() //nolint:errcheck

		rules, err := svc.ImportCSV(ctx, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Imported %d fare rules\n", len(rules))
		return nil

	case "list":
		rules, err := svc.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FROM\tTO\tFARE")
		for _, r := range rules {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", r.FromStation, r.ToStation, r.FareOneWay)
		}
		return tw.Flush()

	default:
		return fmt.Errorf("unknown fares command %q", args[0])
	}
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Pipes and tests.
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return strings.TrimRight(scanner.Text(), "\r"), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
