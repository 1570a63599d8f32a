package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/planr/internal/task"
)

var csvHeader = []string{"ID", "Title", "Status", "Priority", "Start", "End", "Tags", "Order", "Overdue", "Created", "Updated", "Description"}

// ToCSV writes tasks to a new file at path.
func ToCSV(tasks []task.Task, today time.Time, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()
	return WriteCSV(f, tasks, today)
}

// WriteCSV writes a header row and one row per task, in the given order.
func WriteCSV(out io.Writer, tasks []task.Task, today time.Time) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range tasks {
		row := []string{
			t.ID,
			t.Title,
			string(t.Status),
			string(t.Priority),
			task.FormatDate(t.Start),
			task.FormatDate(t.End),
			strings.Join(t.Tags, ";"),
			strconv.Itoa(t.Order),
			strconv.FormatBool(t.IsOverdue(today)),
			t.Created.UTC().Format(time.RFC3339),
			t.Updated.UTC().Format(time.RFC3339),
			t.Description,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
