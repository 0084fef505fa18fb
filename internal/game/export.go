package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExportSession appends a plain-text report of a finished game to filename:
// topic, every answer with its judgment and like count, and both awards.
func ExportSession(s *Session, result Result, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Catalyst Game Results - %s\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Topic: %s\n", s.topic))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	if len(s.answers) > 0 {
		sb.WriteString("Answers:\n")
		for _, a := range s.answers {
			marker := ""
			if a.Synthetic {
				marker = " [AI]"
			}
			sb.WriteString(fmt.Sprintf("- %s%s: \"%s\" (%d likes)\n", a.Nickname, marker, a.Deviation, len(a.likedBy)))
			if a.Judgment.BusinessPivot != "" {
				sb.WriteString(fmt.Sprintf("  pivot: %s\n", a.Judgment.BusinessPivot))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Awards:\n")
	sb.WriteString(fmt.Sprintf("- Grand Prix: %s \"%s\" (%s)\n", result.GrandPrix.Nickname, result.GrandPrix.Deviation, result.GrandPrix.Reason))
	sb.WriteString(fmt.Sprintf("- Pivot Award: %s \"%s\" (%s)\n", result.PivotAward.Nickname, result.PivotAward.Deviation, result.PivotAward.Reason))
	sb.WriteString("\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	return nil
}
