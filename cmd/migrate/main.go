package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"donortrack/internal/db"
	"donortrack/internal/infra"
)

func main() {
	_ = godotenv.Load()

	timeout := flag.Duration("timeout", time.Minute, "overall timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [-timeout d] up|down|status|version|reset\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	command := db.Up
	if flag.NArg() > 0 {
		command = db.Command(strings.ToLower(flag.Arg(0)))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(fmt.Errorf("DATABASE_URL is required"))
	}

	logger := infra.NewLogger(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL")).With().Str("cmd", "migrate").Logger()

	conn, err := db.Open(dbURL)
	if err != nil {
		exitWithError(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := db.Run(ctx, conn, command); err != nil {
		exitWithError(fmt.Errorf("migrate %s: %w", command, err))
	}
	logger.Info().Str("command", string(command)).Msg("migrations done")
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
