package core

import "strings"

// Field is a canonical column of the payments table.
type Field string

const (
	FieldName     Field = "name"
	FieldAmount   Field = "amount"
	FieldCategory Field = "category"
	FieldContact  Field = "contact"
)

// headerRules are checked in order; the first rule whose keyword is contained
// in the lowercased header wins. "apid" covers a misspelled column seen in the
// production sheet.
var headerRules = []struct {
	field    Field
	keywords []string
}{
	{FieldName, []string{"client"}},
	{FieldAmount, []string{"amount", "paid", "revenue", "apid"}},
	{FieldCategory, []string{"industry"}},
	{FieldContact, []string{"gmail", "email"}},
}

// MapHeader maps a raw header to its canonical field. The second return value
// is false for headers that match no rule; those columns are ignored.
func MapHeader(header string) (Field, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, rule := range headerRules {
		for _, kw := range rule.keywords {
			if strings.Contains(h, kw) {
				return rule.field, true
			}
		}
	}
	return "", false
}

// ColumnIndex resolves the column position of every canonical field in a header row.
// When several headers map to the same field the leftmost one is used.
func ColumnIndex(header []string) map[Field]int {
	idx := make(map[Field]int, len(headerRules))
	for i, h := range header {
		f, ok := MapHeader(h)
		if !ok {
			continue
		}
		if _, seen := idx[f]; !seen {
			idx[f] = i
		}
	}
	return idx
}

// NormalizeTable converts a parsed table into canonical records.
// A row is kept only when its name is non-empty and its amount is non-zero.
func NormalizeTable(t Table) []Record {
	cols := ColumnIndex(t.Header)
	col := func(f Field) int {
		if i, ok := cols[f]; ok {
			return i
		}
		return -1
	}
	nameCol, amountCol := col(FieldName), col(FieldAmount)
	categoryCol, contactCol := col(FieldCategory), col(FieldContact)

	out := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		name := Cell(row, nameCol)
		if name == "" {
			continue
		}
		amount := AmountValue(Cell(row, amountCol))
		if amount == 0 {
			continue
		}
		category := Cell(row, categoryCol)
		if category == "" {
			category = UnknownCategory
		}
		out = append(out, Record{
			Name:     name,
			Amount:   amount,
			Category: category,
			Contact:  Cell(row, contactCol),
		})
	}
	return out
}
