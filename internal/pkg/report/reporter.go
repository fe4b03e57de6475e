package report

import (
	"github.com/getsentry/sentry-go"
)

// Options carries optional data attached to a reported error.
type Options struct {
	Tags  map[string]string
	Extra map[string]interface{}
	Level sentry.Level
}

// Error reports err at error level.
func Error(err error) {
	ErrorWithOptions(err, Options{})
}

// ErrorWithOptions reports err with tags, context and level. Level defaults
// to sentry.LevelError.
func ErrorWithOptions(err error, opts Options) {
	if err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		if opts.Extra != nil {
			scope.SetContext("extra", opts.Extra)
		}
		for k, v := range opts.Tags {
			scope.SetTag(k, v)
		}
		level := opts.Level
		if level == "" {
			level = sentry.LevelError
		}
		scope.SetLevel(level)
		sentry.CaptureException(err)
	})
}
