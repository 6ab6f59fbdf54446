package donorform

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var projectionSchema = []Field{
	{ID: "city", Label: "City", FieldType: FieldSelector, Options: []string{"A2", "B"}, Order: 1},
	{ID: "phone", Label: "Phone", FieldType: FieldText, Order: 0},
	{ID: "count", Label: "Count", FieldType: FieldNumeric, Order: 2},
}

func TestProjectFollowsSchemaOrder(t *testing.T) {
	cells := Project(projectionSchema, Values{"city": "A", "count": 3.0, "gone": "orphan"})
	require.Len(t, cells, 3)

	assert.Equal(t, "phone", cells[0].Field.ID)
	assert.Equal(t, Placeholder, cells[0].Display)
	assert.False(t, cells[0].Present)

	// an option renamed after the record was written shows the stored value
	assert.Equal(t, "A", cells[1].Display)
	assert.True(t, cells[1].Present)

	assert.Equal(t, "3", cells[2].Display)
}

func TestProjectNilValues(t *testing.T) {
	cells := Project(projectionSchema, nil)
	for _, c := range cells {
		assert.Equal(t, Placeholder, c.Display)
	}
	assert.Empty(t, Project(nil, Values{"x": "y"}))
}

func TestInspectReportsDrift(t *testing.T) {
	warnings := Inspect(projectionSchema, Values{"city": "A", "zeta": "1", "alpha": "2", "phone": "99"})
	assert.Equal(t, []Warning{
		{Kind: WarnStaleOption, FieldID: "city", Value: "A"},
		{Kind: WarnOrphanedValue, FieldID: "alpha", Value: "2"},
		{Kind: WarnOrphanedValue, FieldID: "zeta", Value: "1"},
	}, warnings)

	assert.Empty(t, Inspect(projectionSchema, Values{"city": "B"}))
}

func TestBuildTable(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []Record{
		{DonorName: "Asha", Amount: decimal.NewFromInt(500), Values: Values{"phone": "123", "city": "B", "old": "x"}, CreatedAt: at},
		{DonorName: "Ravi", Amount: decimal.NewFromInt(20), CreatedAt: at},
	}

	table := BuildTable(projectionSchema, records)
	assert.Equal(t, []string{"Donor Name", "Amount", "Phone", "City", "Count", "Date"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"123", "B", "-"}, table.Rows[0].Cells)
	assert.Equal(t, []Warning{{Kind: WarnOrphanedValue, FieldID: "old", Value: "x"}}, table.Rows[0].Warnings)
	assert.Equal(t, []string{"-", "-", "-"}, table.Rows[1].Cells)
	assert.Equal(t, at, table.Rows[1].CreatedAt)
}
