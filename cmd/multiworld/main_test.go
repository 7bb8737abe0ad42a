package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCommands(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	dbPath := filepath.Join(dir, "runs.db")
	returnsPath := filepath.Join(dir, "returns.bin")

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"config", []string{"config", "-out", configPath}, []string{"wrote"}},
		{"task", []string{"task", "-config", configPath, "-sample", "2"},
			[]string{"schema", "goal"}},
		{"rollout", []string{"rollout", "-config", configPath, "-episodes",
			"1", "-db", dbPath, "-returns", returnsPath},
			[]string{"episode 0", "mean return"}},
		{"runs", []string{"runs", "-db", dbPath}, []string{"episodes=1"}},
		{"render", []string{"render", "-dir", filepath.Join(dir, "frames")},
			[]string{"rendered"}},
	}

	for _, test := range tests {
		var out bytes.Buffer
		if err := run(ctx, test.args, &out); err != nil {
			t.Fatalf("%v: %v", test.name, err)
		}
		for _, want := range test.want {
			if !strings.Contains(out.String(), want) {
				t.Errorf("%v: output %q does not contain %q", test.name,
					out.String(), want)
			}
		}
	}

	if _, err := os.Stat(returnsPath); err != nil {
		t.Errorf("rollout: returns not saved: %v", err)
	}
	frames, err := os.ReadDir(filepath.Join(dir, "frames"))
	if err != nil || len(frames) == 0 {
		t.Errorf("render: no frames saved: %v", err)
	}
}

func TestRunErrors(t *testing.T) {
	tests := [][]string{
		nil,
		{"unknown"},
		{"rollout", "-episodes", "0"},
		{"rollout", "-agent", "none", "-episodes", "1"},
		{"task", "-config", "missing.json"},
	}

	for _, args := range tests {
		var out bytes.Buffer
		if err := run(context.Background(), args, &out); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}
