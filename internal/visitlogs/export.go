package visitlogs

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WritePageStatsCSV streams the per-page aggregate as CSV.
func WritePageStatsCSV(w io.Writer, stats []PageStat) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"№", "Страница", "Количество посещений"}); err != nil {
		return err
	}
	for i, stat := range stats {
		row := []string{strconv.Itoa(i + 1), stat.Path, strconv.Itoa(stat.Count)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteUserStatsCSV streams the per-user aggregate as CSV.
func WriteUserStatsCSV(w io.Writer, stats []UserStat) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"№", "Пользователь", "Количество посещений"}); err != nil {
		return err
	}
	for i, stat := range stats {
		name := stat.UserName
		if name == "" {
			name = "Неаутентифицированный пользователь"
		}
		row := []string{strconv.Itoa(i + 1), name, strconv.Itoa(stat.Count)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
