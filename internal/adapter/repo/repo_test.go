package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"donortrack/internal/domain"
	"donortrack/internal/domain/donorform"
	"donortrack/internal/sqlinline"
)

func TestEventGetByIDParsesAmount(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	sql := &fakeSQL{row: valuesRow("e1", "Navratri", "", "1250.75", int64(4), "1234", "5678", created)}

	ev, err := NewEventRepository(sql).GetByID(context.Background(), "e1")
	if err != nil {
		t.Fatalf("GetByID error = %v", err)
	}
	if ev.CurrentAmount.String() != "1250.75" || ev.TotalVisitors != 4 {
		t.Fatalf("unexpected totals: %s / %d", ev.CurrentAmount, ev.TotalVisitors)
	}
	if sql.calls[0].query != sqlinline.QGetEvent {
		t.Fatalf("unexpected query")
	}
}

func TestEventGetByIDNotFound(t *testing.T) {
	_, err := NewEventRepository(&fakeSQL{}).GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID error = %v, want ErrNotFound", err)
	}
}

func TestEventWritesReportMissingRows(t *testing.T) {
	repo := NewEventRepository(&fakeSQL{execTag: pgconn.NewCommandTag("UPDATE 0")})
	if err := repo.AdjustTotals(context.Background(), "e1", decimal.NewFromInt(5), 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("AdjustTotals error = %v", err)
	}
	if err := repo.Delete(context.Background(), "e1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Delete error = %v", err)
	}

	sql := &fakeSQL{execTag: pgconn.NewCommandTag("UPDATE 1")}
	if err := NewEventRepository(sql).AdjustTotals(context.Background(), "e1", decimal.RequireFromString("-12.5"), 0); err != nil {
		t.Fatalf("AdjustTotals error = %v", err)
	}
	if got := sql.calls[0].args[1]; got != "-12.5" {
		t.Fatalf("amount arg = %#v", got)
	}
}

func TestDonationCreateMapsForeignKeyViolation(t *testing.T) {
	sql := &fakeSQL{execErr: &pgconn.PgError{Code: "23503"}}
	err := NewDonationRepository(sql).Create(context.Background(), &domain.Donation{ID: "d1", EventID: "gone", Amount: decimal.NewFromInt(1)})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Create error = %v, want ErrNotFound", err)
	}
}

func TestDonationCreateEncodesCustomFields(t *testing.T) {
	sql := &fakeSQL{}
	d := &domain.Donation{ID: "d1", EventID: "e1", DonorName: "Asha", Amount: decimal.NewFromInt(500), CustomFields: donorform.Values{"city": "A"}}
	if err := NewDonationRepository(sql).Create(context.Background(), d); err != nil {
		t.Fatalf("Create error = %v", err)
	}
	args := sql.calls[0].args
	if string(args[4].([]byte)) != `{"city":"A"}` {
		t.Fatalf("custom fields arg = %s", args[4])
	}
	if args[3] != "500" {
		t.Fatalf("amount arg = %#v", args[3])
	}
	if d.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not stamped")
	}
}

func TestDonationListDecodesRows(t *testing.T) {
	created := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	sql := &fakeSQL{rows: [][]any{
		{"d2", "e1", "Ravi", "20", []byte(`{"mode":"Cash","count":3}`), created, &updated},
		{"d1", "e1", "Asha", "500.5", []byte(nil), created, (*time.Time)(nil)},
	}}

	items, err := NewDonationRepository(sql).ListByEvent(context.Background(), "e1")
	if err != nil {
		t.Fatalf("ListByEvent error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d", len(items))
	}
	if items[0].CustomFields["mode"] != "Cash" || items[0].CustomFields["count"] != 3.0 {
		t.Fatalf("custom fields = %#v", items[0].CustomFields)
	}
	if items[0].UpdatedAt == nil || !items[0].UpdatedAt.Equal(updated) {
		t.Fatalf("UpdatedAt = %v", items[0].UpdatedAt)
	}
	if items[1].CustomFields != nil || items[1].Amount.String() != "500.5" {
		t.Fatalf("second row = %#v", items[1])
	}
}

func TestFormGetMissingIsEmptyVersionZero(t *testing.T) {
	cfg, err := NewFormRepository(&fakeSQL{}).Get(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	if cfg.Version != 0 || len(cfg.Fields) != 0 || cfg.Fields == nil {
		t.Fatalf("unexpected form: %+v", cfg)
	}
}

func TestFormGetDecodesFields(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := []byte(`[{"id":"f1","label":"City","fieldType":"selector","required":true,"options":["A"],"order":0}]`)
	cfg, err := NewFormRepository(&fakeSQL{row: valuesRow(raw, int64(3), at)}).Get(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	if cfg.Version != 3 || len(cfg.Fields) != 1 || cfg.Fields[0].FieldType != donorform.FieldSelector {
		t.Fatalf("unexpected form: %+v", cfg)
	}
}

func TestFormSavePicksStatementByVersion(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fields := []donorform.Field{{ID: "f1", Label: "Note", FieldType: donorform.FieldText}}

	sql := &fakeSQL{row: valuesRow(int64(1), at)}
	cfg, err := NewFormRepository(sql).Save(context.Background(), "e1", fields, 0)
	if err != nil {
		t.Fatalf("Save error = %v", err)
	}
	if cfg.Version != 1 || sql.calls[0].query != sqlinline.QInsertDonorForm {
		t.Fatalf("first save used wrong statement or version: %d", cfg.Version)
	}

	sql = &fakeSQL{row: valuesRow(int64(5), at)}
	if _, err := NewFormRepository(sql).Save(context.Background(), "e1", fields, 4); err != nil {
		t.Fatalf("Save error = %v", err)
	}
	if sql.calls[0].query != sqlinline.QBumpDonorForm || sql.calls[0].args[2] != int64(4) {
		t.Fatalf("bump used wrong statement or args: %#v", sql.calls[0].args)
	}

	_, err = NewFormRepository(&fakeSQL{}).Save(context.Background(), "e1", fields, 4)
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("Save error = %v, want ErrVersionConflict", err)
	}
}

func TestMalformedIDsReadAsNotFound(t *testing.T) {
	ctx := context.Background()
	badUUID := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}
	rowSQL := &fakeSQL{row: errRow(badUUID), queryErr: badUUID, execErr: badUUID}

	checks := map[string]error{}
	_, checks["event get"] = NewEventRepository(rowSQL).GetByID(ctx, "abc")
	_, checks["event update"] = NewEventRepository(rowSQL).Update(ctx, "abc", domain.EventInput{Name: "x"})
	checks["event delete"] = NewEventRepository(rowSQL).Delete(ctx, "abc")
	_, checks["donation get"] = NewDonationRepository(rowSQL).GetByID(ctx, "abc", "d1")
	_, checks["donation list"] = NewDonationRepository(rowSQL).ListByEvent(ctx, "abc")
	checks["donation update"] = NewDonationRepository(rowSQL).Update(ctx, &domain.Donation{ID: "d1", EventID: "abc", Amount: decimal.NewFromInt(1)})
	_, checks["form get"] = NewFormRepository(rowSQL).Get(ctx, "abc")
	_, checks["event list"] = NewEventRepository(rowSQL).List(ctx)

	for name, err := range checks {
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("%s error = %v, want ErrNotFound", name, err)
		}
	}
}

func TestOtherPGErrorsPassThrough(t *testing.T) {
	boom := &pgconn.PgError{Code: "57014"}
	_, err := NewEventRepository(&fakeSQL{row: errRow(boom)}).GetByID(context.Background(), "e1")
	if errors.Is(err, domain.ErrNotFound) || !errors.As(err, new(*pgconn.PgError)) {
		t.Fatalf("GetByID error = %v, want the original PgError", err)
	}
}

func TestEventSetTotalsIsConditional(t *testing.T) {
	expected := domain.Totals{Amount: decimal.NewFromInt(105), Visitors: 3}
	actual := domain.Totals{Amount: decimal.NewFromInt(100), Visitors: 2}
	cases := []struct {
		name           string
		found, written bool
		want           error
	}{
		{"written", true, true, nil},
		{"counters moved", true, false, domain.ErrTotalsChanged},
		{"event gone", false, false, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sql := &fakeSQL{row: valuesRow(tc.found, tc.written)}
			err := NewEventRepository(sql).SetTotals(context.Background(), "e1", expected, actual)
			if !errors.Is(err, tc.want) {
				t.Fatalf("SetTotals error = %v, want %v", err, tc.want)
			}
			if sql.calls[0].query != sqlinline.QSetEventTotals {
				t.Fatalf("unexpected query")
			}
			args := sql.calls[0].args
			if args[1] != "105" || args[2] != int64(3) || args[3] != "100" || args[4] != int64(2) {
				t.Fatalf("args = %#v", args)
			}
		})
	}
}
