package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"gdpengine/internal/engine"
	"gdpengine/internal/models"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeResult(w io.Writer, res models.Result) error {
	tw := newTable(w)
	if res.IsAggregated() {
		fmt.Fprintln(tw, "Country Name\tCountry Code\tIndicator Code\tContinent\tValue\tOperation")
		for _, r := range res.Aggregated {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.CountryName, r.CountryCode, r.IndicatorCode, r.Continent, formatValue(r.Value), r.Operation)
		}
	} else {
		fmt.Fprintln(tw, "Country Name\tCountry Code\tIndicator Code\tContinent\tYear\tValue")
		for _, r := range res.Long {
			val := ""
			if r.Value != nil {
				val = formatValue(*r.Value)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
				r.CountryName, r.CountryCode, r.IndicatorCode, r.Continent, r.Year, val)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", res.Len())
	return err
}

func writeGroups(w io.Writer, dim engine.Dimension, rows []models.GroupRow) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "%s\tValue\n", dim.Column())
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r.Key, formatValue(r.Value))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return err
}
