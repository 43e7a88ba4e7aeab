package engine

import (
	"gdpengine/internal/models"
)

var idCols = []string{"Country Name", "Continent", "Indicator Name", "Indicator Code", "Country Code"}

// wideTable builds a wide table with the identifier columns followed by years.
func wideTable(years []string, rows ...[]string) models.WideTable {
	w := models.WideTable{Columns: append(append([]string{}, idCols...), years...)}
	for _, r := range rows {
		w.Records = append(w.Records, models.WideRecord(r))
	}
	return w
}

func rec(country, continent, code string, year int, value float64) models.LongRecord {
	return models.LongRecord{
		CountryName:   country,
		Continent:     continent,
		IndicatorName: "GDP (current US$)",
		IndicatorCode: "NY.GDP.MKTP.CD",
		CountryCode:   code,
		Year:          year,
		Value:         &value,
	}
}

func sample() models.LongTable {
	return models.LongTable{
		rec("Japan", "Asia", "JPN", 2000, 100),
		rec("Japan", "Asia", "JPN", 2001, 110),
		rec("India", "Asia", "IND", 2000, 40),
		rec("India", "Asia", "IND", 2001, 50),
		rec("France", "Europe", "FRA", 2000, 80),
		rec("France", "Europe", "FRA", 2001, 85),
		{CountryName: "France", Continent: "Europe", CountryCode: "FRA",
			IndicatorName: "GDP (current US$)", IndicatorCode: "NY.GDP.MKTP.CD", Year: 2002},
	}
}

func sp(s string) *string { return &s }
func ip(i int) *int       { return &i }
