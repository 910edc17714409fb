// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
)

// ModuleKey is the attribute that rules are matched against.
const ModuleKey = "module"

// Handler filters records by module before passing them to the underlying
// handler.
type Handler struct {
	handler      slog.Handler
	defaultLevel slog.Level
	lowestLevel  slog.Level
	modules      map[string]slog.Level
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler returns a handler that writes to w in the given format, plain or
// json, filtered by the rules. With no rules the default level is info.
func NewHandler(format string, w io.Writer, rules []Rule) (*Handler, error) {
	h := new(Handler)
	h.defaultLevel = slog.LevelInfo
	h.modules = map[string]slog.Level{}
	for _, r := range rules {
		if r.Module == "" {
			h.defaultLevel = r.Level
		} else {
			h.modules[strings.ToLower(r.Module)] = r.Level
		}
	}

	h.lowestLevel = h.defaultLevel
	for _, l := range h.modules {
		if l < h.lowestLevel {
			h.lowestLevel = l
		}
	}

	opts := &slog.HandlerOptions{Level: h.lowestLevel}
	switch strings.ToLower(format) {
	case "", "plain", "text":
		// Render slog's JSON through zerolog's console writer
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 || a.Key != slog.MessageKey {
				return a
			}
			return slog.String(zerolog.MessageFieldName, a.Value.String())
		}
		h.handler = slog.NewJSONHandler(ConsoleWriter(w), opts)

	case "json":
		h.handler = slog.NewJSONHandler(w, opts)

	default:
		return nil, errors.BadRequest.WithFormat("log format %q is not supported", format)
	}
	return h, nil
}

// ConsoleWriter returns a zerolog console writer that renders JSON log lines
// written to it as human readable lines on w. Output is only colored when w
// is a file and the terminal supports it.
func ConsoleWriter(w io.Writer) io.Writer {
	_, isFile := w.(*os.File)
	return &zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    color.NoColor || !isFile,
		TimeFormat: time.RFC3339,
		FormatLevel: func(i interface{}) string {
			if ll, ok := i.(string); ok {
				return strings.ToUpper(ll)
			}
			return "????"
		},
		FormatMessage: func(i interface{}) string {
			if i == nil {
				return ""
			}
			if s, ok := i.(string); ok {
				return s
			}
			return fmt.Sprint(i)
		},
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < h.lowestLevel {
		return false
	}
	return h.handler.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.levelFor(h.defaultLevel, record.Attrs) {
		return nil
	}
	return h.handler.Handle(ctx, record)
}

// WithAttrs returns a handler whose default level follows the module
// attribute, if attrs sets one.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	i := *h
	i.handler = h.handler.WithAttrs(attrs)
	i.defaultLevel = h.levelFor(h.defaultLevel, func(fn func(slog.Attr) bool) {
		for _, a := range attrs {
			if !fn(a) {
				return
			}
		}
	})
	return &i
}

func (h *Handler) WithGroup(name string) slog.Handler {
	i := *h
	i.handler = h.handler.WithGroup(name)
	return &i
}

func (h *Handler) levelFor(level slog.Level, attrs func(func(slog.Attr) bool)) slog.Level {
	attrs(func(a slog.Attr) bool {
		if a.Key != ModuleKey {
			return true
		}
		if l, ok := h.modules[strings.ToLower(a.Value.String())]; ok {
			level = l
		}
		return false
	})
	return level
}
