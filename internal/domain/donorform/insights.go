package donorform

import (
	"time"

	"github.com/shopspring/decimal"
)

// Palette is the fixed chart palette; buckets take colors by first-seen
// position, cycling.
var Palette = []string{
	"#3b82f6",
	"#10b981",
	"#f59e0b",
	"#ef4444",
	"#8b5cf6",
	"#ec4899",
	"#14b8a6",
	"#f97316",
}

// Record is the part of a donation the read-side computations look at.
type Record struct {
	DonorName string
	Amount    decimal.Decimal
	Values    Values
	CreatedAt time.Time
}

// Bucket aggregates the records that chose one value of a field.
type Bucket struct {
	Label            string
	Count            int
	Amount           decimal.Decimal
	Percentage       decimal.Decimal
	AmountPercentage decimal.Decimal
	Color            string
}

// FieldInsight is the distribution of one selector or radio field.
type FieldInsight struct {
	Field   Field
	Buckets []Bucket
}

// Summary is the insight view of a whole event.
type Summary struct {
	TotalDonors int
	TotalAmount decimal.Decimal
	Fields      []FieldInsight
}

var hundred = decimal.NewFromInt(100)

// TotalAmount sums the amounts of all records.
func TotalAmount(records []Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// Distribution groups records by their value for field. Records without a
// value are skipped, but percentages are still taken over every record
// passed in, so the buckets of a partially answered field do not sum to
// 100. Buckets come out in first-seen order.
func Distribution(field Field, records []Record) []Bucket {
	totalRecords := decimal.NewFromInt(int64(len(records)))
	totalAmount := TotalAmount(records)

	index := make(map[string]int)
	var buckets []Bucket
	for _, r := range records {
		value, ok := r.Values.String(field.ID)
		if !ok {
			continue
		}
		i, seen := index[value]
		if !seen {
			i = len(buckets)
			index[value] = i
			buckets = append(buckets, Bucket{
				Label:  value,
				Amount: decimal.Zero,
				Color:  Palette[i%len(Palette)],
			})
		}
		buckets[i].Count++
		buckets[i].Amount = buckets[i].Amount.Add(r.Amount)
	}

	for i := range buckets {
		buckets[i].Percentage = percent(decimal.NewFromInt(int64(buckets[i].Count)), totalRecords)
		buckets[i].AmountPercentage = percent(buckets[i].Amount, totalAmount)
	}
	return buckets
}

// Summarize computes the distribution of every visualizable field.
func Summarize(schema []Field, records []Record) Summary {
	s := Summary{
		TotalDonors: len(records),
		TotalAmount: TotalAmount(records),
	}
	for _, f := range Visualizable(schema) {
		s.Fields = append(s.Fields, FieldInsight{Field: f, Buckets: Distribution(f, records)})
	}
	return s
}

func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole).Round(1)
}
