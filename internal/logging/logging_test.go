package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitLevels(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	cases := []struct {
		name string
		cfg  Config
		want zerolog.Level
	}{
		{"default", Config{}, zerolog.InfoLevel},
		{"debug", Config{Debug: true}, zerolog.DebugLevel},
		{"verbose overrides debug", Config{Debug: true, Verbose: true}, zerolog.TraceLevel},
		{"silent", Config{Silent: true}, zerolog.ErrorLevel},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := Init(c.cfg); err != nil {
				t.Fatalf("Init: %v", err)
			}
			if got := zerolog.GlobalLevel(); got != c.want {
				t.Errorf("level = %v, want %v", got, c.want)
			}
		})
	}
}

func TestInitFileTee(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	path := filepath.Join(t.TempDir(), "blitzstats.log")
	if err := Init(Config{File: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Info().Msg("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log file to contain data")
	}
}

func TestSetLevelString(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	SetLevelString("warn")
	if got := zerolog.GlobalLevel(); got != zerolog.WarnLevel {
		t.Errorf("level = %v, want warn", got)
	}
	// Unknown levels are ignored rather than panicking.
	SetLevelString("not-a-level")
	if got := zerolog.GlobalLevel(); got != zerolog.WarnLevel {
		t.Errorf("level changed on bad input: %v", got)
	}
}
