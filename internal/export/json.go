package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/okutan/studia/internal/store"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonSession struct {
	ID          int64   `json:"id"`
	Subject     string  `json:"subject"`
	SubjectID   int64   `json:"subject_id"`
	Date        string  `json:"date"`
	DurationSec int64   `json:"duration_seconds"`
	Duration    string  `json:"duration"`
	Minutes     float64 `json:"minutes"`
}

func ToJSON(sessions []store.SessionView, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}

	for _, sn := range sessions {
		subjectName := sn.SubjectName
		if subjectName == "" {
			subjectName = "Unknown"
		}

		export.Sessions = append(export.Sessions, jsonSession{
			ID:          sn.ID,
			Subject:     subjectName,
			SubjectID:   sn.SubjectID,
			Date:        sn.Date.Local().Format(time.RFC3339),
			DurationSec: sn.Duration,
			Duration:    formatDuration(sn.Duration),
			Minutes:     sn.Minutes(),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
