package cli

import (
	"fmt"
	"io"
	"strconv"

	"paydash/internal/core"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// NewTable creates a borderless, left aligned table writing to w.
func NewTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(headers)
	return table
}

// RenderSnapshot prints the headline figures, the category breakdown and
// the top clients of snap.
func RenderSnapshot(w io.Writer, snap core.Snapshot, source string, topN int) error {
	sum := snap.Summary

	fmt.Fprintf(w, "Source: %s\n", source)
	if snap.LastUpdated != nil {
		fmt.Fprintf(w, "Last updated: %s\n", snap.LastUpdated.Local().Format("02/01/06, 3:04 pm"))
	}
	if snap.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", snap.Error)
	}
	fmt.Fprintln(w)

	kpis := NewTable(w, "Metric", "Value")
	if err := kpis.Bulk([][]string{
		{"Total Payments Received", core.FormatINR(sum.Total)},
		{"Paying Clients", strconv.Itoa(sum.Count)},
		{"Industries", strconv.Itoa(len(sum.Categories))},
		{"Avg Payment/Client", core.FormatINR(sum.Average)},
	}); err != nil {
		return err
	}
	if err := kpis.Render(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	if len(sum.Categories) > 0 {
		cats := NewTable(w, "Industry", "Clients", "Share", "Total")
		for _, c := range sum.Categories {
			share := float64(c.Count) * 100 / float64(sum.Count)
			if err := cats.Append([]string{
				c.Name,
				strconv.Itoa(c.Count),
				fmt.Sprintf("%.1f%%", share),
				core.FormatINR(c.Total),
			}); err != nil {
				return err
			}
		}
		if err := cats.Render(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	top := core.TopRecords(snap.Records, topN)
	if len(top) == 0 {
		fmt.Fprintln(w, "No clients yet.")
		return nil
	}
	clients := NewTable(w, "#", "Client", "Amount", "Industry", "Contact")
	for i, r := range top {
		if err := clients.Append([]string{
			strconv.Itoa(i + 1),
			r.Name,
			core.FormatINR(r.Amount),
			r.Category,
			r.Contact,
		}); err != nil {
			return err
		}
	}
	return clients.Render()
}
