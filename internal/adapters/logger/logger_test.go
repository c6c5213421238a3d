package logger_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/tea/internal/adapters/logger"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger writing to a buffer without colours.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_InfoWarn(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Info("resolved 3 packages")
	lg.Done("installed gnu.org/wget@1.21.4")
	lg.Warn("gnu.org/wget is already linked")

	g := goldie.New(t)
	g.Assert(t, "info_warn", buf.Bytes())
}

func TestLogger_ErrorChain(t *testing.T) {
	lg, buf := newTestLogger(t)

	err := zerr.With(
		zerr.Wrap(zerr.Wrap(errors.New("connection reset by peer"), "failed to download artifact"), "install failed"),
		"package", "gnu.org/wget",
	)
	lg.Error(err)

	g := goldie.New(t)
	g.Assert(t, "error_chain", buf.Bytes())
}

func TestLogger_ErrorNil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	lg.Error(errors.New("boom"))

	assert.Contains(t, buf.String(), `"msg":"operation failed"`)
	assert.Contains(t, buf.String(), `"error":"boom"`)

	buf.Reset()
	lg.Done("linked 2 shortcuts")
	assert.Contains(t, buf.String(), `"level":"DONE"`)

	buf.Reset()
	lg.SetJSON(false)
	lg.Info("back to pretty")
	assert.Equal(t, "back to pretty\n", buf.String())
}

func TestCollectErrorEntries(t *testing.T) {
	err := zerr.Wrap(zerr.With(zerr.New("inner"), "key", "value"), "outer")

	entries := logger.CollectErrorEntriesExported(err)

	assert.Len(t, entries, 2)
	assert.Equal(t, "outer", entries[0].Message)
	assert.Equal(t, "inner", entries[1].Message)
	assert.Equal(t, map[string]any{"key": "value"}, entries[1].Metadata)

	plain := logger.CollectErrorEntriesExported(errors.New("plain"))
	assert.Equal(t, []logger.ErrorEntry{{Message: "plain"}}, plain)
}

func TestFormatErrorEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []logger.ErrorEntry
		want    string
	}{
		{
			name:    "single entry",
			entries: []logger.ErrorEntry{{Message: "single error"}},
			want:    "Error: single error",
		},
		{
			name:    "causes",
			entries: []logger.ErrorEntry{{Message: "first"}, {Message: "second"}, {Message: "third"}},
			want:    "Error: first\n\n  Caused by:\n    → second\n    → third",
		},
		{
			name: "metadata sorted",
			entries: []logger.ErrorEntry{
				{Message: "error", Metadata: map[string]any{"zebra": "z", "alpha": "a"}},
			},
			want: "Error: error\n       alpha: a\n       zebra: z",
		},
		{
			name:    "multiline cause",
			entries: []logger.ErrorEntry{{Message: "main"}, {Message: "line1\nline2"}},
			want:    "Error: main\n\n  Caused by:\n    → line1\n      line2",
		},
		{
			name:    "empty",
			entries: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.FormatErrorEntriesExported(tt.entries))
		})
	}
}
