// Package logging provides the structured logger every other package
// calls into: a Fields map, stdlib log.Printf plumbing, and a Sentry
// breadcrumb/event split between Info/Warn/Debug (breadcrumbs) and Error
// (captured exception). Fields are built from a RhythmIdentity rather than
// an HTTP request context, since this module has no HTTP surface.
package logging

import (
	"fmt"
	"log"

	"github.com/getsentry/sentry-go"
)

// Fields is a structured log field set.
type Fields map[string]any

// RhythmIdentity names the rhythm instance a log line concerns.
type RhythmIdentity struct {
	ID     string
	Script string
}

// WithIdentity seeds a Fields map with a rhythm instance's identity.
func WithIdentity(ident RhythmIdentity) Fields {
	return Fields{
		"rhythm_id": ident.ID,
		"script":    ident.Script,
	}
}

// Info logs an informational message and records a Sentry breadcrumb.
func Info(msg string, fields Fields) {
	log.Printf("[INFO] %s %s", msg, formatFields(fields))
	breadcrumb("info", sentry.LevelInfo, msg, fields)
}

// Warn logs a warning message and records a Sentry breadcrumb.
func Warn(msg string, fields Fields) {
	log.Printf("[WARN] %s %s", msg, formatFields(fields))
	breadcrumb("warning", sentry.LevelWarning, msg, fields)
}

// Debug logs a debug message and records a Sentry breadcrumb.
func Debug(msg string, fields Fields) {
	log.Printf("[DEBUG] %s %s", msg, formatFields(fields))
	breadcrumb("debug", sentry.LevelDebug, msg, fields)
}

// Error logs an error with structured fields, tagged with rhythm_id, and
// captures it in Sentry.
func Error(msg string, err error, fields Fields) {
	log.Printf("[ERROR] %s: %v %s", msg, err, formatFields(fields))

	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			for key, value := range fields {
				scope.SetContext(key, map[string]any{"value": value})
			}
			if rhythmID, ok := fields["rhythm_id"].(string); ok {
				scope.SetTag("rhythm_id", rhythmID)
			}
			hub.CaptureException(err)
		})
	}
}

func breadcrumb(kind string, level sentry.Level, msg string, fields Fields) {
	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:     kind,
		Category: "log",
		Message:  msg,
		Data:     map[string]any(fields),
		Level:    level,
	})
}

func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	result := "{"
	first := true
	for k, v := range fields {
		if !first {
			result += ", "
		}
		result += fmt.Sprintf("%s=%v", k, v)
		first = false
	}
	result += "}"
	return result
}
