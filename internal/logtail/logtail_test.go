package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	line := `{"level":"info","session":"abc","generation":12,"fitness":0.41,"time":"2026-03-01T14:32:15Z","message":"poll-progress"}`

	e := Parse(line)
	if e.Level != zerolog.InfoLevel {
		t.Fatalf("Level = %v, want info", e.Level)
	}
	if e.Message != "poll-progress" {
		t.Fatalf("Message = %q", e.Message)
	}
	want := time.Date(2026, 3, 1, 14, 32, 15, 0, time.UTC)
	if !e.Time.Equal(want) {
		t.Fatalf("Time = %v, want %v", e.Time, want)
	}
	if got := e.FieldKeys(); !reflect.DeepEqual(got, []string{"fitness", "generation", "session"}) {
		t.Fatalf("FieldKeys() = %v", got)
	}
	if e.Raw != line {
		t.Fatalf("Raw should keep the original line")
	}
}

func TestParse_NonJSON(t *testing.T) {
	e := Parse("  goroutine 1 [running]:")
	if e.Level != zerolog.NoLevel || e.Message != "goroutine 1 [running]:" || e.Fields != nil {
		t.Fatalf("Parse() = %#v", e)
	}
	if got := Format(e); got != "goroutine 1 [running]:" {
		t.Fatalf("Format() = %q", got)
	}
}

func TestFormat(t *testing.T) {
	e := Entry{
		Level:   zerolog.WarnLevel,
		Message: "poll-out-of-order",
		Fields: map[string]any{
			"generation": float64(3),
			"reason":     "index went backwards",
			"tags":       []any{"a"},
		},
	}

	want := `WRN poll-out-of-order generation=3 reason="index went backwards" tags=["a"]`
	if got := Format(e); got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

func TestTail_SkipsBlankLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "foilwatch.log")
	content := `{"level":"info","message":"job-submitted"}

{"level":"error","error":"boom","message":"session-failed"}
`
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	entries, err := Tail(logPath, 10)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Tail() returned %d entries, want 2", len(entries))
	}
	if entries[1].Level != zerolog.ErrorLevel || entries[1].LevelLabel() != "ERR" {
		t.Fatalf("second entry = %#v", entries[1])
	}
	if got := Format(entries[1]); got != "ERR session-failed error=boom" {
		t.Fatalf("Format() = %q", got)
	}
}
