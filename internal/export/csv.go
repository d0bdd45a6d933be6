package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/okutan/studia/internal/store"
)

func ToCSV(sessions []store.SessionView, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Subject", "Date", "Duration (s)", "Duration", "Minutes"}); err != nil {
		return err
	}

	for _, sn := range sessions {
		subjectName := sn.SubjectName
		if subjectName == "" {
			subjectName = "Unknown"
		}

		row := []string{
			fmt.Sprintf("%d", sn.ID),
			subjectName,
			sn.Date.Local().Format(time.RFC3339),
			fmt.Sprintf("%d", sn.Duration),
			formatDuration(sn.Duration),
			fmt.Sprintf("%.1f", sn.Minutes()),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
