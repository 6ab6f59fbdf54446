package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"donortrack/internal/domain"
	"donortrack/internal/domain/donorform"
	"donortrack/internal/infra"
	"donortrack/internal/sqlinline"
)

// FormRepositoryPG keeps the field schema as one jsonb document per event.
type FormRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewFormRepository creates a new FormRepositoryPG.
func NewFormRepository(sql infra.SQLExecutor) *FormRepositoryPG {
	return &FormRepositoryPG{sql: sql}
}

// Get returns the stored form or an empty version 0 form.
func (r *FormRepositoryPG) Get(ctx context.Context, eventID string) (*domain.FormConfig, error) {
	cfg := &domain.FormConfig{EventID: eventID, Fields: []donorform.Field{}}
	var raw []byte
	err := r.sql.QueryRow(ctx, sqlinline.QGetDonorForm, eventID).Scan(&raw, &cfg.Version, &cfg.UpdatedAt)
	if err != nil {
		if infra.IsNoRows(err) {
			return cfg, nil
		}
		return nil, mapPGError(err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg.Fields); err != nil {
			return nil, fmt.Errorf("decode form %s: %w", eventID, err)
		}
	}
	return cfg, nil
}

// Save writes fields when the stored version equals expectedVersion.
func (r *FormRepositoryPG) Save(ctx context.Context, eventID string, fields []donorform.Field, expectedVersion int64) (*domain.FormConfig, error) {
	if fields == nil {
		fields = []donorform.Field{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode form: %w", err)
	}

	cfg := &domain.FormConfig{EventID: eventID, Fields: donorform.Clone(fields)}
	var scanErr error
	if expectedVersion == 0 {
		scanErr = r.sql.QueryRow(ctx, sqlinline.QInsertDonorForm, eventID, raw).Scan(&cfg.Version, &cfg.UpdatedAt)
	} else {
		scanErr = r.sql.QueryRow(ctx, sqlinline.QBumpDonorForm, eventID, raw, expectedVersion).Scan(&cfg.Version, &cfg.UpdatedAt)
	}
	if scanErr != nil {
		if infra.IsNoRows(scanErr) {
			return nil, domain.ErrVersionConflict
		}
		return nil, mapPGError(scanErr)
	}
	return cfg, nil
}
