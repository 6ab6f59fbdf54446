package donorform

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Placeholder is displayed for fields a record did not answer.
const Placeholder = "-"

// Cell is one field of a record as displayed under the current schema.
type Cell struct {
	Field   Field
	Display string
	Present bool
}

// Project lays a record's values out along the current schema. Values
// stored under ids the schema no longer has are left out; values no longer
// among a field's options are shown as stored.
func Project(schema []Field, values Values) []Cell {
	fields := Sorted(schema)
	cells := make([]Cell, 0, len(fields))
	for _, f := range fields {
		display, ok := values.String(f.ID)
		if !ok {
			display = Placeholder
		}
		cells = append(cells, Cell{Field: f, Display: display, Present: ok})
	}
	return cells
}

// WarningKind classifies a schema drift finding. Drift is expected and
// never an error.
type WarningKind string

const (
	// WarnOrphanedValue marks a value stored under a field id the schema
	// no longer defines.
	WarnOrphanedValue WarningKind = "orphaned_value"
	// WarnStaleOption marks a selector or radio value that is no longer one
	// of the field's options.
	WarnStaleOption WarningKind = "stale_option"
)

// Warning describes one drift finding in a record.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	FieldID string      `json:"fieldId"`
	Value   string      `json:"value"`
}

// Inspect lists the drift between a record's values and the schema.
// Stale options come first in display order, then orphans sorted by id.
func Inspect(schema []Field, values Values) []Warning {
	var warnings []Warning
	known := make(map[string]struct{}, len(schema))
	for _, f := range Sorted(schema) {
		known[f.ID] = struct{}{}
		if !f.FieldType.HasOptions() {
			continue
		}
		v, ok := values.String(f.ID)
		if ok && !containsOption(f.Options, v) {
			warnings = append(warnings, Warning{Kind: WarnStaleOption, FieldID: f.ID, Value: v})
		}
	}
	var orphans []string
	for id := range values {
		if _, ok := known[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)
	for _, id := range orphans {
		v, _ := values.String(id)
		warnings = append(warnings, Warning{Kind: WarnOrphanedValue, FieldID: id, Value: v})
	}
	return warnings
}

// Table is the display/print layout of a record set under one schema.
type Table struct {
	Headers []string
	Rows    []TableRow
}

// TableRow is one record of a Table.
type TableRow struct {
	DonorName string
	Amount    decimal.Decimal
	Cells     []string
	CreatedAt time.Time
	Warnings  []Warning
}

const (
	HeaderDonorName = "Donor Name"
	HeaderAmount    = "Amount"
	HeaderDate      = "Date"
)

// BuildTable projects every record; headers are the fixed columns around
// the current field labels.
func BuildTable(schema []Field, records []Record) Table {
	fields := Sorted(schema)
	headers := make([]string, 0, len(fields)+3)
	headers = append(headers, HeaderDonorName, HeaderAmount)
	for _, f := range fields {
		headers = append(headers, f.Label)
	}
	headers = append(headers, HeaderDate)

	rows := make([]TableRow, 0, len(records))
	for _, r := range records {
		cells := Project(fields, r.Values)
		display := make([]string, len(cells))
		for i, c := range cells {
			display[i] = c.Display
		}
		rows = append(rows, TableRow{
			DonorName: r.DonorName,
			Amount:    r.Amount,
			Cells:     display,
			CreatedAt: r.CreatedAt,
			Warnings:  Inspect(fields, r.Values),
		})
	}
	return Table{Headers: headers, Rows: rows}
}
