package domain

import (
	"time"

	"donortrack/internal/domain/donorform"
)

// FormConfig is the single custom field schema document of an event.
// Version increases by one on every successful write and is zero when the
// event has never saved a schema.
type FormConfig struct {
	EventID   string
	Fields    []donorform.Field
	Version   int64
	UpdatedAt time.Time
}
