package core

import (
	"math"

	"github.com/shopspring/decimal"
)

// BucketLabels are the fixed labels of the distribution chart. Records are
// assigned round-robin by position; there is no date column behind them.
var BucketLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}

// CategoryStat aggregates the records sharing one category.
type CategoryStat struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// BucketStat is the amount summed into one distribution label.
type BucketStat struct {
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// Summary is derived from the full record set on every read.
type Summary struct {
	Total      float64        `json:"total"`
	Count      int            `json:"count"`
	Average    float64        `json:"average"`
	Categories []CategoryStat `json:"categories"`
	Buckets    []BucketStat   `json:"buckets"`
}

// Summarize computes totals, the per-category breakdown (first-seen order)
// and the round-robin bucket distribution. Sums are exact decimal sums,
// each rounded once to float64 on the way out: category totals partition
// the grand total in decimal, but adding the float64 values back up may be
// off in the last bit. Non-finite amounts count as zero and sums beyond the
// float64 range saturate, so a summary always encodes as JSON.
func Summarize(records []Record) Summary {
	total := decimal.Zero
	catTotals := map[string]decimal.Decimal{}
	catCounts := map[string]int{}
	order := make([]string, 0)
	bucketTotals := make([]decimal.Decimal, len(BucketLabels))
	bucketUsed := make([]bool, len(BucketLabels))

	for i, r := range records {
		amt := decimalAmount(r.Amount)
		total = total.Add(amt)

		if _, seen := catCounts[r.Category]; !seen {
			order = append(order, r.Category)
		}
		catCounts[r.Category]++
		catTotals[r.Category] = catTotals[r.Category].Add(amt)

		b := i % len(BucketLabels)
		bucketTotals[b] = bucketTotals[b].Add(amt)
		bucketUsed[b] = true
	}

	s := Summary{
		Total:      floatAmount(total),
		Count:      len(records),
		Categories: make([]CategoryStat, 0, len(order)),
		Buckets:    make([]BucketStat, 0, len(BucketLabels)),
	}
	if s.Count > 0 {
		s.Average = floatAmount(total.Div(decimal.NewFromInt(int64(s.Count))))
	}
	for _, name := range order {
		s.Categories = append(s.Categories, CategoryStat{
			Name:  name,
			Count: catCounts[name],
			Total: floatAmount(catTotals[name]),
		})
	}
	for i, label := range BucketLabels {
		if !bucketUsed[i] {
			continue
		}
		s.Buckets = append(s.Buckets, BucketStat{Label: label, Total: floatAmount(bucketTotals[i])})
	}
	return s
}

// MaxBucket returns the largest bucket total, or 0 when there are none.
func (s Summary) MaxBucket() float64 {
	var max float64
	for _, b := range s.Buckets {
		if b.Total > max {
			max = b.Total
		}
	}
	return max
}

func decimalAmount(f float64) decimal.Decimal {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func floatAmount(d decimal.Decimal) float64 {
	f := d.InexactFloat64()
	switch {
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	}
	return f
}
