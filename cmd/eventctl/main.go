// Command eventctl is the operator tool for events: listing them, checking
// and repairing running totals, resetting forgotten passwords and writing
// export backups.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"donortrack/internal/bootstrap"
	"donortrack/internal/domain"
	"donortrack/internal/eventsvc"
	"donortrack/internal/infra"
)

const usage = `usage: eventctl <command> [flags]

commands:
  list                                   list events with their stored totals
  totals -event ID                       compare stored totals with the donation records
  reconcile                              repair drifted totals of every event
  reset-passwords -event ID -admin PIN -visitor PIN
  backup -dir DIR [-zip]                 write an export document per event
`

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	logger := infra.NewLogger("cli", cfg.LogLevel).With().Str("cmd", "eventctl").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backend, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		exitWithError(fmt.Errorf("failed to open store: %w", err))
	}
	defer backend.Close()
	svc := eventsvc.New(backend.Store, backend.Notifier, logger)

	command, args := os.Args[1], os.Args[2:]
	switch command {
	case "list":
		err = listEvents(ctx, svc)
	case "totals":
		err = showTotals(ctx, svc, args)
	case "reconcile":
		err = reconcile(ctx, svc)
	case "reset-passwords":
		err = resetPasswords(ctx, svc, args)
	case "backup":
		err = backupEvents(ctx, svc, args, time.Now())
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		exitWithError(err)
	}
}

func listEvents(ctx context.Context, svc *eventsvc.Service) error {
	events, err := svc.ListEvents(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAMOUNT\tDONORS\tCREATED")
	for _, ev := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", ev.ID, ev.Name, ev.CurrentAmount.StringFixed(2), ev.TotalVisitors, ev.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func showTotals(ctx context.Context, svc *eventsvc.Service, args []string) error {
	fs := flag.NewFlagSet("totals", flag.ExitOnError)
	eventID := fs.String("event", "", "event ID")
	_ = fs.Parse(args)
	if strings.TrimSpace(*eventID) == "" {
		return errors.New("-event is required")
	}
	check, err := svc.CheckTotals(ctx, *eventID)
	if err != nil {
		return err
	}
	printCheck(check)
	return nil
}

func reconcile(ctx context.Context, svc *eventsvc.Service) error {
	checks, err := svc.Reconcile(ctx)
	if err != nil {
		return err
	}
	for _, c := range checks {
		if c.Drifted() {
			printCheck(c)
		}
	}
	fmt.Printf("%d events checked\n", len(checks))
	return nil
}

func printCheck(c eventsvc.TotalsCheck) {
	status := "ok"
	switch {
	case c.Repaired:
		status = "repaired"
	case c.Drifted():
		status = "drifted"
	}
	fmt.Printf("%s (%s): stored amount=%s donors=%d, records amount=%s donors=%d [%s]\n",
		c.EventID, c.Name,
		c.Stored.Amount.StringFixed(2), c.Stored.Visitors,
		c.Actual.Amount.StringFixed(2), c.Actual.Visitors,
		status)
}

func resetPasswords(ctx context.Context, svc *eventsvc.Service, args []string) error {
	fs := flag.NewFlagSet("reset-passwords", flag.ExitOnError)
	eventID := fs.String("event", "", "event ID")
	admin := fs.String("admin", "", "new 4 digit admin password")
	visitor := fs.String("visitor", "", "new 4 digit visitor password")
	_ = fs.Parse(args)
	if strings.TrimSpace(*eventID) == "" {
		return errors.New("-event is required")
	}

	// the operator acts with the event's admin rights
	operator := domain.Access{EventID: *eventID, Role: domain.RoleAdmin}
	ev, err := svc.GetEvent(ctx, operator, *eventID)
	if err != nil {
		return fmt.Errorf("failed to load event: %w", err)
	}
	updated, err := svc.UpdateEvent(ctx, operator, *eventID, domain.EventInput{
		Name:            ev.Name,
		Description:     ev.Description,
		AdminPassword:   *admin,
		VisitorPassword: *visitor,
	})
	if err != nil {
		return fmt.Errorf("failed to reset passwords: %w", err)
	}
	fmt.Printf("Event %s (%s) passwords updated\n", updated.ID, updated.Name)
	return nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
