package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/planr/internal/task"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Project    string     `json:"project,omitempty"`
	Count      int        `json:"count"`
	Tasks      []jsonTask `json:"tasks"`
}

type jsonTask struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Start       string   `json:"start"`
	End         string   `json:"end,omitempty"`
	Tags        []string `json:"tags"`
	Order       int      `json:"order"`
	Overdue     bool     `json:"overdue"`
	Created     string   `json:"created"`
	Updated     string   `json:"updated"`
}

// ToJSON writes tasks to a new file at path.
func ToJSON(tasks []task.Task, project string, now time.Time, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()
	return WriteJSON(f, tasks, project, now)
}

// WriteJSON writes an indented document holding tasks in the given order.
func WriteJSON(out io.Writer, tasks []task.Task, project string, now time.Time) error {
	export := jsonExport{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Project:    project,
		Count:      len(tasks),
		Tasks:      []jsonTask{},
	}
	for _, t := range tasks {
		tags := t.Tags
		if tags == nil {
			tags = []string{}
		}
		export.Tasks = append(export.Tasks, jsonTask{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Status:      string(t.Status),
			Priority:    string(t.Priority),
			Start:       task.FormatDate(t.Start),
			End:         task.FormatDate(t.End),
			Tags:        tags,
			Order:       t.Order,
			Overdue:     t.IsOverdue(now),
			Created:     t.Created.UTC().Format(time.RFC3339),
			Updated:     t.Updated.UTC().Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
