package repo

import (
	"donortrack/internal/domain"
	"donortrack/internal/infra"
)

// NewStore wires the PostgreSQL repositories over one executor.
func NewStore(sql infra.SQLExecutor) domain.Store {
	return domain.Store{
		Events:    NewEventRepository(sql),
		Donations: NewDonationRepository(sql),
		Forms:     NewFormRepository(sql),
	}
}
