package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/tea/internal/ui/output"
	"go.trai.ch/tea/internal/ui/style"
)

// LevelDone marks a completed step, such as an installed package. It sits between info and warn.
const LevelDone = slog.Level(2)

// levelNames labels the custom levels in structured output.
var levelNames = map[slog.Level]string{
	LevelDone: "DONE",
}

// PrettyHandler is a slog.Handler writing one line per record: an icon, the message in the colour of
// its level, then the attributes dimmed.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	// attrs are already qualified with the group that was open when they were added.
	attrs []string
	group string
}

// NewPrettyHandler creates a PrettyHandler writing to w.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		out:   output.New(w),
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	icon, c := decorate(r.Level)

	msg := r.Message
	if icon != "" {
		msg = icon + " " + msg
	}
	line := h.paint(msg, c)

	attrs := make([]string, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, qualify(h.group, attr))
		return true
	})
	if len(attrs) > 0 {
		line += " " + h.paint(strings.Join(attrs, " "), style.Slate)
	}

	_, err := h.out.WriteString(line + "\n")
	return err
}

// decorate picks the icon and colour of a level.
func decorate(level slog.Level) (string, lipgloss.Color) {
	switch {
	case level >= slog.LevelError:
		return style.Cross, style.Red
	case level >= slog.LevelWarn:
		return style.Warning, style.Yellow
	case level >= LevelDone:
		return style.Check, style.Green
	default:
		return "", style.Slate
	}
}

func (h *PrettyHandler) paint(s string, c lipgloss.Color) string {
	return h.out.String(s).Foreground(termenv.RGBColor(string(c))).String()
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	qualified := make([]string, 0, len(h.attrs)+len(attrs))
	qualified = append(qualified, h.attrs...)
	for _, attr := range attrs {
		qualified = append(qualified, qualify(h.group, attr))
	}

	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: qualified,
		group: h.group,
	}
}

// WithGroup returns a new Handler that prefixes later attributes with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}

	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: h.attrs,
		group: group,
	}
}

func qualify(group string, attr slog.Attr) string {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	return key + "=" + attr.Value.String()
}

// replaceLevel names the custom levels for handlers that print slog's own level labels.
func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok {
		if name, ok := levelNames[level]; ok {
			a.Value = slog.StringValue(name)
		}
	}
	return a
}
