package larch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/larch-testing/larch/reporter"
)

func TestFirstMessage(t *testing.T) {
	tests := []struct {
		name   string
		record reporter.TestRecord
		want   string
	}{
		{
			name:   "no messages",
			record: reporter.TestRecord{},
			want:   "",
		},
		{
			name:   "single line",
			record: reporter.TestRecord{Messages: []string{"expected 2, got 3"}},
			want:   "expected 2, got 3",
		},
		{
			name:   "multi line trimmed",
			record: reporter.TestRecord{Messages: []string{"first line\nsecond line"}},
			want:   "first line",
		},
		{
			name:   "only the first message",
			record: reporter.TestRecord{Messages: []string{"one", "two"}},
			want:   "one",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, firstMessage(tt.record))
		})
	}
}

func TestGetResultString(t *testing.T) {
	assert.Equal(t, "✓ pass", getResultString(reporter.StatusPass))
	assert.Equal(t, "✗ fail", getResultString(reporter.StatusFail))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "0.0s", formatDuration(0))
}
