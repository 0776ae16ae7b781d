package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// MaskValue replaces masked credentials in log output.
const MaskValue = "***"

// credentialKeys lists attribute keys whose values are always fully
// masked. Per-site configuration can put request headers and cookies into
// attrs, so header-shaped keys are covered alongside generic ones.
var credentialKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"password":            true,
	"passwd":              true,
	"secret":              true,
	"token":               true,
	"api_key":             true,
	"apikey":              true,
	"credential":          true,
	"credentials":         true,
}

// ScrubHandler wraps an slog.Handler and scrubs credentials from records
// before they reach it.
//
// Design decision: scrubbing is a handler wrapper rather than a custom
// logger type because:
//  1. Callers keep the plain *slog.Logger API everywhere
//  2. Any underlying handler works unchanged (text, JSON)
//  3. Attributes attached via With() are scrubbed exactly once
type ScrubHandler struct {
	handler slog.Handler
}

// NewScrubHandler returns a ScrubHandler wrapping handler. A nil handler
// falls back to slog.Default().Handler().
func NewScrubHandler(handler slog.Handler) *ScrubHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &ScrubHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *ScrubHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle scrubs the record's attributes and forwards it.
func (h *ScrubHandler) Handle(ctx context.Context, r slog.Record) error {
	scrubbed := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		scrubbed.AddAttrs(h.scrubAttr(a))
		return true
	})
	return h.handler.Handle(ctx, scrubbed)
}

// WithAttrs scrubs the attributes before attaching them.
func (h *ScrubHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	scrubbed := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		scrubbed[i] = h.scrubAttr(a)
	}
	return &ScrubHandler{handler: h.handler.WithAttrs(scrubbed)}
}

// WithGroup returns a handler scoped to the named group.
func (h *ScrubHandler) WithGroup(name string) slog.Handler {
	return &ScrubHandler{handler: h.handler.WithGroup(name)}
}

// scrubAttr scrubs one attribute, recursing into groups.
func (h *ScrubHandler) scrubAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		grouped := a.Value.Group()
		scrubbed := make([]slog.Attr, len(grouped))
		for i, ga := range grouped {
			scrubbed[i] = h.scrubAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(scrubbed...)}
	}

	if credentialKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		if masked, ok := scrubURL(a.Value.String()); ok {
			return slog.String(a.Key, masked)
		}
	}
	return a
}

// scrubURL masks the userinfo portion of a URL-shaped value. It reports
// whether masking happened so non-URL values pass through untouched.
func scrubURL(raw string) (string, bool) {
	// Fast path: values without both a scheme and userinfo marker cannot
	// contain URL credentials.
	if !strings.Contains(raw, "://") || !strings.Contains(raw, "@") {
		return raw, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw, false
	}
	u.User = url.User(MaskValue)
	return u.String(), true
}

// NewLogger returns a text-format slog.Logger writing to w with credential
// scrubbing. Verbose mode logs at Debug, otherwise Warn.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewScrubHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewJSONLogger is NewLogger with JSON output, for log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewScrubHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
