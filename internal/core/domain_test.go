package core

import (
	"errors"
	"strings"
	"testing"
)

func TestMapHeader(t *testing.T) {
	cases := []struct {
		header string
		field  Field
		ok     bool
	}{
		{"Client Name", FieldName, true},
		{"Total Amount Paid (INR)", FieldAmount, true},
		{"REVENUE", FieldAmount, true},
		{"Amount Apid", FieldAmount, true},
		{" Industry ", FieldCategory, true},
		{"Gmail", FieldContact, true},
		{"Contact Email", FieldContact, true},
		// "client" has precedence over "email"
		{"Client Email", FieldName, true},
		{"Notes", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		f, ok := MapHeader(tc.header)
		if ok != tc.ok || f != tc.field {
			t.Fatalf("MapHeader(%q) = (%q,%v), want (%q,%v)", tc.header, f, ok, tc.field, tc.ok)
		}
	}
}

func TestColumnIndexLeftmostWins(t *testing.T) {
	idx := ColumnIndex([]string{"Notes", "Amount", "Client", "Paid"})
	if idx[FieldAmount] != 1 {
		t.Fatalf("expected leftmost amount column 1, got %d", idx[FieldAmount])
	}
	if idx[FieldName] != 2 {
		t.Fatalf("expected name column 2, got %d", idx[FieldName])
	}
	if _, ok := idx[FieldCategory]; ok {
		t.Fatalf("category should be unmapped")
	}
}

func TestNormalizeTableScenario(t *testing.T) {
	table := Table{
		Header: []string{"Client", "Amount Paid", "Industry", "Gmail"},
		Rows: [][]string{
			{"Acme", "₹1,000", "Tech", "a@x.com"},
			{"", "₹500", "Tech", ""},
			{"Beta", "₹0", "Finance", ""},
		},
	}
	got := NormalizeTable(table)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d: %+v", len(got), got)
	}
	want := Record{Name: "Acme", Amount: 1000, Category: "Tech", Contact: "a@x.com"}
	if got[0] != want {
		t.Fatalf("unexpected record: %+v", got[0])
	}

	s := Summarize(got)
	if s.Total != 1000 || s.Count != 1 || s.Average != 1000 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestNormalizeTableDefaultsAndRaggedRows(t *testing.T) {
	table := Table{
		Header: []string{"Client", "Revenue", "Industry", "Email", "Notes"},
		Rows: [][]string{
			{"  Gamma  ", "$ 2,500.25"},
			{"Delta", "abc", "Retail"},
			{"Eps", "-10", "", " e@x.com "},
		},
	}
	got := NormalizeTable(table)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(got), got)
	}
	if got[0].Name != "Gamma" || got[0].Amount != 2500.25 || got[0].Category != UnknownCategory || got[0].Contact != "" {
		t.Fatalf("unexpected defaults: %+v", got[0])
	}
	if got[1].Amount != -10 || got[1].Contact != "e@x.com" {
		t.Fatalf("negative amounts are retained: %+v", got[1])
	}
}

func TestNormalizeTableWithoutAmountColumn(t *testing.T) {
	got := NormalizeTable(Table{Header: []string{"Client"}, Rows: [][]string{{"Acme"}}})
	if len(got) != 0 {
		t.Fatalf("rows without amount must be dropped, got %+v", got)
	}
}

func TestErrorKindOf(t *testing.T) {
	fe := &FetchError{URL: "http://x", StatusCode: 503}
	if ErrorKindOf(fe) != KindTransport || fe.Error() != "HTTP error! status: 503" {
		t.Fatalf("unexpected fetch error: %v", fe)
	}
	wrapped := errors.Join(errors.New("ctx"), &ParseError{Line: 3, Err: errors.New("bad quote")})
	if ErrorKindOf(wrapped) != KindParse {
		t.Fatalf("expected parse kind")
	}
	if ErrorKindOf(errors.New("boom")) != KindUnknown {
		t.Fatalf("expected unknown kind")
	}
	if msg := ErrorMessage(errors.New("boom")); !strings.HasPrefix(msg, "Failed to fetch data") {
		t.Fatalf("unexpected message %q", msg)
	}
	if ErrorMessage(nil) != "" {
		t.Fatalf("nil error should have empty message")
	}
}

func TestTopRecords(t *testing.T) {
	recs := []Record{
		{Name: "a", Amount: 10},
		{Name: "b", Amount: 30},
		{Name: "c", Amount: 10},
		{Name: "d", Amount: 20},
	}
	top := TopRecords(recs, 3)
	var names []string
	for _, r := range top {
		names = append(names, r.Name)
	}
	if got := strings.Join(names, ","); got != "b,d,a" {
		t.Fatalf("TopRecords() = %s, want b,d,a", got)
	}
	if recs[0].Name != "a" || recs[1].Name != "b" {
		t.Fatal("input was reordered")
	}
	if got := len(TopRecords(recs, 10)); got != 4 {
		t.Fatalf("len = %d, want 4", got)
	}
	if TopRecords(nil, 5) != nil {
		t.Fatal("nil input should stay nil")
	}
}
