package crawler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ParserID names a parser registered in a Registry.
type ParserID string

// Task is one unit of pending crawl work: a target URL and the parser that
// understands the page behind it.
type Task struct {
	URL    string   `json:"url"`
	Parser ParserID `json:"parser"`
}

// IsZero reports whether the task is an empty placeholder that must not be enqueued.
func (t Task) IsZero() bool {
	return strings.TrimSpace(t.URL) == "" || t.Parser == ""
}

// String renders the task for logs.
func (t Task) String() string {
	return fmt.Sprintf("%s (%s)", t.URL, t.Parser)
}

// Page is the result of fetching a Task's target.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// ContentLength returns the size of the fetched body.
func (p Page) ContentLength() int {
	return len(p.Body)
}

// Resolve turns a link found on the page into an absolute URL using the final
// (post-redirect) location of the page as the base.
func (p Page) Resolve(ref string) (string, error) {
	base := p.FinalURL
	if base == "" {
		base = p.URL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", ref, err)
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// Field is one named value of a Record. A nil Value means the field is absent.
type Field struct {
	Name  string
	Value *string
}

// Record is one fully extracted entity ready for persistence. Fields must be
// returned in the same fixed order for every record of a given type.
type Record interface {
	Fields() []Field
}

// FieldNames returns the field names of rec in declared order.
func FieldNames(rec Record) []string {
	fields := rec.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// MarshalRecord encodes rec as a JSON object whose keys follow the record's
// field order. Absent values are encoded as null.
func MarshalRecord(rec Record) ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range rec.Fields() {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, fmt.Errorf("marshal field name %q: %w", f.Name, err)
		}
		b.Write(key)
		b.WriteByte(':')
		if f.Value == nil {
			b.WriteString("null")
			continue
		}
		val, err := json.Marshal(*f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal field %q: %w", f.Name, err)
		}
		b.Write(val)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// Output is one element of a parser's result: either a follow-up Task or a
// finished Record, never both. Values are built only with Follow and Emit; the
// zero Output carries an empty task.
type Output struct {
	task   Task
	record Record
}

// Follow schedules rawURL to be parsed by parser.
func Follow(rawURL string, parser ParserID) Output {
	return Output{task: Task{URL: rawURL, Parser: parser}}
}

// Emit hands a finished record to the sink.
func Emit(rec Record) Output {
	return Output{record: rec}
}

// Task returns the follow-up task; it is zero for record outputs.
func (o Output) Task() Task {
	return o.task
}

// Record returns the emitted record, or nil for task outputs.
func (o Output) Record() Record {
	return o.record
}
