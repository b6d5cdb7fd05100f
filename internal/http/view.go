package http

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"paydash/internal/core"
)

// DefaultTopClients is how many clients the Top Clients card lists.
const DefaultTopClients = 10

// lastUpdatedLayout matches the short en-IN date and time style.
const lastUpdatedLayout = "02/01/06, 3:04 pm"

type (
	// KPICard is one of the four headline figures.
	KPICard struct {
		Title  string
		Value  string
		Note   string
		Accent string
	}

	// TrendBar is one Revenue Trends row; Width is a percent of the largest bucket.
	TrendBar struct {
		Label  string
		Amount string
		Width  int
	}

	// IndustryBar is one Industry Distribution row.
	IndustryBar struct {
		Name    string
		Count   int
		Percent string
		Width   int
		Color   int
	}

	// ClientRow is one entry of the Top Clients list.
	ClientRow struct {
		Rank       int
		Name       string
		Amount     string
		Category   string
		Contact    string
		BadgeClass string
	}

	// DataHealth backs the Data Health card.
	DataHealth struct {
		Status      string
		StatusClass string
		Records     int
		Interval    string
		Source      string
	}

	// DashboardView is everything the dashboard templates render.
	DashboardView struct {
		Version     uint64
		Loading     bool
		ShowLoading bool
		Error       string
		LastUpdated string
		KPIs        []KPICard
		Trends      []TrendBar
		Industries  []IndustryBar
		TopClients  []ClientRow
		ClientCount int
		Health      DataHealth
	}
)

var badgeClasses = map[string]string{
	"Technology": "badge-technology",
	"Healthcare": "badge-healthcare",
	"Finance":    "badge-finance",
	"Education":  "badge-education",
	"Retail":     "badge-retail",
}

// industryColors is the number of bar palettes the stylesheet defines.
const industryColors = 5

// BadgeClass maps a category to its badge style; unknown categories are muted.
func BadgeClass(category string) string {
	if c, ok := badgeClasses[category]; ok {
		return c
	}
	return "badge-muted"
}

// buildView turns a snapshot into the display model.
func buildView(snap core.Snapshot, topN int, interval time.Duration, source string) DashboardView {
	if topN <= 0 {
		topN = DefaultTopClients
	}
	sum := snap.Summary

	v := DashboardView{
		Version:     snap.Version,
		Loading:     snap.Loading,
		ShowLoading: snap.Loading && !snap.HasData(),
		Error:       snap.Error,
		ClientCount: len(snap.Records),
		KPIs: []KPICard{
			{Title: "Total Payments Received", Value: core.FormatINR(sum.Total), Note: "From all clients", Accent: "up"},
			{Title: "Paying Clients", Value: strconv.Itoa(sum.Count), Note: "Active service clients", Accent: "up"},
			{Title: "Industries", Value: strconv.Itoa(len(sum.Categories)), Note: "Diverse portfolio", Accent: "neutral"},
			{Title: "Avg Payment/Client", Value: core.FormatINR(sum.Average), Note: "Service value per client", Accent: "up"},
		},
		Trends:     trendBars(sum),
		Industries: industryBars(sum),
		TopClients: topClients(snap.Records, topN),
		Health:     dataHealth(snap, interval, source),
	}
	if snap.LastUpdated != nil {
		v.LastUpdated = snap.LastUpdated.Local().Format(lastUpdatedLayout)
	}
	return v
}

func trendBars(sum core.Summary) []TrendBar {
	maxTotal := sum.MaxBucket()
	bars := make([]TrendBar, 0, len(sum.Buckets))
	for _, b := range sum.Buckets {
		bars = append(bars, TrendBar{
			Label:  b.Label,
			Amount: core.FormatINR(b.Total),
			Width:  barWidth(b.Total, maxTotal),
		})
	}
	return bars
}

// barWidth is value as a rounded percent of maxValue, at least 2 when
// value is positive so small bars stay visible.
func barWidth(value, maxValue float64) int {
	if maxValue <= 0 || value <= 0 {
		return 0
	}
	w := int(math.Round(value / maxValue * 100))
	return min(max(w, 2), 100)
}

func industryBars(sum core.Summary) []IndustryBar {
	bars := make([]IndustryBar, 0, len(sum.Categories))
	for i, c := range sum.Categories {
		pct := 0.0
		if sum.Count > 0 {
			pct = float64(c.Count) * 100 / float64(sum.Count)
		}
		bars = append(bars, IndustryBar{
			Name:    c.Name,
			Count:   c.Count,
			Percent: fmt.Sprintf("%.1f", pct),
			Width:   int(math.Round(pct)),
			Color:   i % industryColors,
		})
	}
	return bars
}

func topClients(records []core.Record, n int) []ClientRow {
	top := core.TopRecords(records, n)
	rows := make([]ClientRow, 0, len(top))
	for i, r := range top {
		rows = append(rows, ClientRow{
			Rank:       i + 1,
			Name:       r.Name,
			Amount:     core.FormatINR(r.Amount),
			Category:   r.Category,
			Contact:    r.Contact,
			BadgeClass: BadgeClass(r.Category),
		})
	}
	return rows
}

func dataHealth(snap core.Snapshot, interval time.Duration, source string) DataHealth {
	h := DataHealth{
		Records:  len(snap.Records),
		Interval: formatInterval(interval),
		Source:   source,
	}
	switch {
	case snap.Error != "":
		h.Status, h.StatusClass = "Error", "status-error"
	case snap.Loading:
		h.Status, h.StatusClass = "Syncing", "status-syncing"
	default:
		h.Status, h.StatusClass = "Active", "status-active"
	}
	return h
}

// formatInterval renders 30s as "30s" and 5m0s as "5m".
func formatInterval(d time.Duration) string {
	switch {
	case d <= 0:
		return "off"
	case d%time.Hour == 0:
		return strconv.Itoa(int(d/time.Hour)) + "h"
	case d%time.Minute == 0:
		return strconv.Itoa(int(d/time.Minute)) + "m"
	default:
		return d.String()
	}
}
