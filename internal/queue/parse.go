package queue

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/edward-yakop/go-chores/internal/core"
	"github.com/edward-yakop/go-chores/internal/misc"
)

// keptSegments is the number of leading "/"-separated segments of a queued
// destination that survive as directory boundaries.
const keptSegments = 7

// ParseError reports a queue line that does not split into exactly three
// quote-delimited fields.
type ParseError struct {
	Line int
	Text string
}

func (e *ParseError) Error() string {
	return "queue line " + strconv.Itoa(e.Line) + " is malformed: " + strconv.Quote(e.Text)
}

// ParseLine turns one queue line, `<url> "<destination>"<rest>`, into a task.
// Escaped quotes are dropped before splitting.
func ParseLine(line string) (core.Task, bool) {
	line = strings.ReplaceAll(line, `\"`, "")
	fields := strings.Split(line, `"`)
	if len(fields) != 3 {
		return core.Task{}, false
	}

	return core.Task{
		URL:         strings.TrimRightFunc(fields[0], unicode.IsSpace),
		Destination: MangleDestination(fields[1]),
	}, true
}

// MangleDestination keeps the first seven path segments as they are and glues
// every later segment onto the seventh without separators. Queue producers
// rely on this layout, so "/a/b/c/d/e/f/g/h" becomes "/a/b/c/d/e/fgh".
func MangleDestination(raw string) string {
	segments := strings.Split(raw, "/")
	if len(segments) <= keptSegments {
		return raw
	}
	return strings.Join(segments[:keptSegments], "/") + strings.Join(segments[keptSegments:], "")
}

// FormatLine renders a task the way it is written back to the queue.
func FormatLine(task core.Task) string {
	return task.URL + ` "` + task.Destination + `"` + "\n"
}

// Parse reads every task from r. Blank lines are skipped; any other line
// that cannot be split is a *ParseError.
func Parse(r io.Reader) ([]core.Task, error) {
	var tasks []core.Task

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		task, ok := ParseLine(line)
		if !ok {
			return nil, &ParseError{Line: n, Text: line}
		}
		tasks = append(tasks, task)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "Read queue failed")
	}

	return tasks, nil
}

// ReadQueue parses the queue file at path.
func ReadQueue(path string) ([]core.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Open queue ["+path+"] failed")
	}
	defer f.Close()

	tasks, err := Parse(f)
	if err != nil {
		return nil, errors.Wrap(err, "Parse queue ["+path+"] failed")
	}
	return tasks, nil
}

// WriteQueue atomically replaces the queue file with tasks.
func WriteQueue(path string, tasks []core.Task) error {
	var sb strings.Builder
	for _, task := range tasks {
		sb.WriteString(FormatLine(task))
	}
	return misc.WriteFileAtomic(path, []byte(sb.String()), 0644)
}

