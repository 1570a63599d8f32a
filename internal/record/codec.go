package record

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/planr/internal/task"
)

const delimiter = "---"

var errNoFrontmatter = errors.New("missing frontmatter")

// frontmatter is the on-disk key order of a task record.
type frontmatter struct {
	Title    string   `yaml:"title"`
	Status   string   `yaml:"status"`
	Priority string   `yaml:"priority"`
	Start    string   `yaml:"start"`
	End      string   `yaml:"end,omitempty"`
	Tags     []string `yaml:"tags"`
	Order    int      `yaml:"order"`
	Created  string   `yaml:"created"`
	Updated  string   `yaml:"updated"`
}

// Marshal renders a task as markdown with a YAML frontmatter block. The
// description becomes the body.
func Marshal(t task.Task) ([]byte, error) {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	fm := frontmatter{
		Title:    t.Title,
		Status:   string(t.Status),
		Priority: string(t.Priority),
		Start:    task.FormatDate(t.Start),
		End:      task.FormatDate(t.End),
		Tags:     tags,
		Order:    t.Order,
		Created:  t.Created.UTC().Format(time.RFC3339Nano),
		Updated:  t.Updated.UTC().Format(time.RFC3339Nano),
	}
	data, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("marshal frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	buf.Write(data)
	buf.WriteString(delimiter + "\n")
	if desc := strings.TrimSpace(t.Description); desc != "" {
		buf.WriteString("\n" + desc + "\n")
	}
	return buf.Bytes(), nil
}

// Parse decodes one record. filename is the record's base name and
// determines the task id. ok is false when the record must be skipped;
// errs may be non-empty either way.
func Parse(content []byte, filename string, now time.Time) (t task.Task, ok bool, errs []error) {
	head, body, err := split(content)
	if err != nil {
		return task.Task{}, false, []error{&task.ValidationError{Record: filename,
			Message: fmt.Sprintf("failed to parse markdown: %v", err)}}
	}

	data := map[string]any{}
	if err := yaml.Unmarshal(head, &data); err != nil {
		return task.Task{}, false, []error{&task.ValidationError{Record: filename,
			Message: fmt.Sprintf("failed to parse frontmatter: %v", err)}}
	}

	t, verrs := fromFrontmatter(data, filename, now)
	ok = true
	for _, e := range verrs {
		if !e.Defaulted {
			ok = false
		}
		errs = append(errs, e)
	}
	if !ok {
		return task.Task{}, false, errs
	}
	t.ID = strings.TrimSuffix(filename, ext)
	t.Description = strings.TrimSpace(string(body))
	return t, true, errs
}

// split separates the frontmatter block from the body.
func split(content []byte) (head, body []byte, err error) {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	if !strings.HasPrefix(text, delimiter+"\n") {
		return nil, nil, errNoFrontmatter
	}
	rest := text[len(delimiter)+1:]
	if strings.HasPrefix(rest, delimiter+"\n") || rest == delimiter {
		return nil, []byte(strings.TrimPrefix(rest, delimiter)), nil
	}
	idx := strings.Index(rest, "\n"+delimiter)
	if idx < 0 {
		return nil, nil, errors.New("unterminated frontmatter")
	}
	head = []byte(rest[:idx+1])
	after := rest[idx+1+len(delimiter):]
	if nl := strings.IndexByte(after, '\n'); nl >= 0 {
		after = after[nl+1:]
	} else {
		after = ""
	}
	return head, []byte(after), nil
}
