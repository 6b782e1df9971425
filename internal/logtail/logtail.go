package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Entry is one decoded line of the zerolog JSON log.
type Entry struct {
	Time    time.Time
	Level   zerolog.Level
	Message string
	Fields  map[string]any
	Raw     string
}

// Read returns at most maxLines from the end of the file at path.
// A non-positive maxLines returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Tail reads the last maxLines of the log and decodes each one.
func Tail(path string, maxLines int) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	lines = lo.Filter(lines, func(line string, _ int) bool {
		return strings.TrimSpace(line) != ""
	})
	return lo.Map(lines, func(line string, _ int) Entry {
		return Parse(line)
	}), nil
}

// Parse decodes a zerolog JSON line. Lines that are not JSON objects come
// back as a message with no level.
func Parse(line string) Entry {
	entry := Entry{Raw: line, Level: zerolog.NoLevel}

	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		entry.Message = strings.TrimSpace(line)
		return entry
	}

	if v, ok := raw[zerolog.TimestampFieldName].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			entry.Time = ts
		}
		delete(raw, zerolog.TimestampFieldName)
	}
	if v, ok := raw[zerolog.LevelFieldName].(string); ok {
		if lvl, err := zerolog.ParseLevel(v); err == nil {
			entry.Level = lvl
		}
		delete(raw, zerolog.LevelFieldName)
	}
	if v, ok := raw[zerolog.MessageFieldName].(string); ok {
		entry.Message = v
		delete(raw, zerolog.MessageFieldName)
	}
	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry
}

// FieldKeys returns the entry's extra field names in sorted order.
func (e Entry) FieldKeys() []string {
	keys := lo.Keys(e.Fields)
	sort.Strings(keys)
	return keys
}

// LevelLabel returns the three-letter level tag used in the log pane.
func (e Entry) LevelLabel() string {
	switch e.Level {
	case zerolog.TraceLevel:
		return "TRC"
	case zerolog.DebugLevel:
		return "DBG"
	case zerolog.InfoLevel:
		return "INF"
	case zerolog.WarnLevel:
		return "WRN"
	case zerolog.ErrorLevel:
		return "ERR"
	case zerolog.FatalLevel:
		return "FTL"
	case zerolog.PanicLevel:
		return "PNC"
	default:
		return "???"
	}
}

// Format renders an entry as a single plain-text line:
//
//	14:32:15 INF poll-progress generation=12 fitness=0.41
func Format(e Entry) string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	if e.Level != zerolog.NoLevel {
		b.WriteString(e.LevelLabel())
		b.WriteByte(' ')
	}
	b.WriteString(e.Message)
	for _, key := range e.FieldKeys() {
		fmt.Fprintf(&b, " %s=%s", key, formatValue(e.Fields[key]))
	}
	return b.String()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		if strings.ContainsAny(val, " \t") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case float64:
		return fmt.Sprintf("%g", val)
	case nil:
		return "null"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
