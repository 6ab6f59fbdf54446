package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"donortrack/internal/domain"
	"donortrack/internal/domain/donorform"
	"donortrack/internal/eventsvc"
	"donortrack/internal/storage"
)

type backupDocument struct {
	EventID      string            `json:"eventId"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	TotalAmount  decimal.Decimal   `json:"totalAmount"`
	TotalDonors  int               `json:"totalDonors"`
	CustomFields []donorform.Field `json:"customFields"`
	Donations    []backupDonation  `json:"donations"`
	GeneratedAt  time.Time         `json:"generatedAt"`
}

type backupDonation struct {
	ID           string           `json:"id"`
	DonorName    string           `json:"donorName"`
	Amount       decimal.Decimal  `json:"amount"`
	CustomFields donorform.Values `json:"customFields"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    *time.Time       `json:"updatedAt,omitempty"`
}

func newBackupDocument(eventID string, exp *eventsvc.Export) backupDocument {
	doc := backupDocument{
		EventID:      eventID,
		Name:         exp.Name,
		Description:  exp.Description,
		TotalAmount:  exp.TotalAmount,
		TotalDonors:  exp.TotalDonors,
		CustomFields: exp.Fields,
		Donations:    make([]backupDonation, 0, len(exp.Donations)),
		GeneratedAt:  exp.GeneratedAt,
	}
	if doc.CustomFields == nil {
		doc.CustomFields = []donorform.Field{}
	}
	for _, d := range exp.Donations {
		values := d.CustomFields
		if values == nil {
			values = donorform.Values{}
		}
		doc.Donations = append(doc.Donations, backupDonation{
			ID:           d.ID,
			DonorName:    d.DonorName,
			Amount:       d.Amount,
			CustomFields: values,
			CreatedAt:    d.CreatedAt,
			UpdatedAt:    d.UpdatedAt,
		})
	}
	return doc
}

// backupEvents writes one export document per event under dir, or a single
// zip of all of them with -zip.
func backupEvents(ctx context.Context, svc *eventsvc.Service, args []string, now time.Time) error {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	dir := fs.String("dir", "", "target directory")
	zipped := fs.Bool("zip", false, "bundle the documents into one archive")
	_ = fs.Parse(args)
	if *dir == "" {
		return errors.New("-dir is required")
	}
	store, err := storage.NewFileStore(*dir)
	if err != nil {
		return err
	}
	keys, err := writeBackup(ctx, svc, store, *zipped, now)
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}

func writeBackup(ctx context.Context, svc *eventsvc.Service, store *storage.FileStore, zipped bool, now time.Time) ([]string, error) {
	events, err := svc.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	stamp := now.UTC().Format("20060102T150405Z")
	entries := make([]storage.Entry, 0, len(events))
	for _, ev := range events {
		operator := domain.Access{EventID: ev.ID, Role: domain.RoleAdmin}
		exp, err := svc.Export(ctx, operator, ev.ID)
		if errors.Is(err, domain.ErrNotFound) {
			// deleted between list and export
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", ev.ID, err)
		}
		data, err := json.MarshalIndent(newBackupDocument(ev.ID, exp), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", ev.ID, err)
		}
		entries = append(entries, storage.Entry{Name: ev.ID + ".json", Data: data, Modified: now})
	}

	if zipped {
		archive, err := storage.Archive(entries)
		if err != nil {
			return nil, err
		}
		key, err := store.Write(ctx, "donortrack-"+stamp+".zip", archive)
		if err != nil {
			return nil, err
		}
		return []string{key}, nil
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		key, err := store.Write(ctx, stamp+"/"+e.Name, e.Data)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
