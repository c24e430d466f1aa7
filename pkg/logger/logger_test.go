package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    Level
		wantErr bool
	}{
		{"err", LevelErr, false},
		{"ERROR", LevelErr, false},
		{" warn ", LevelWarn, false},
		{"info", LevelInfo, false},
		{"verbose", LevelVerbose, false},
		{"debug", LevelDebug, false},
		{"trace", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.name)
		if tt.wantErr {
			assert.Error(t, err, tt.name)
			continue
		}
		assert.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestMaxLevelFiltersRows(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)
	SetMaxLevel(LevelWarn)
	defer func() {
		SetOutput(os.Stderr)
		SetMaxLevel(LevelInfo)
	}()

	Info("dropped %d", 1)
	Warn("kept %d", 2)
	Error("kept %d", 3)

	got := buf.String()
	assert.NotContains(t, got, "dropped")
	assert.Contains(t, got, "kept 2")
	assert.Contains(t, got, "kept 3")
	assert.NotContains(t, got, "\033[")
}
