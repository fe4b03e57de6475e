// Package report forwards unexpected errors to Sentry. With an empty DSN every
// call is a no-op.
package report

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/getsentry/sentry-go"
)

// Setup initialises the global Sentry client and tags the scope with runtime info.
func Setup(dsn, env, release string, tracesSampleRate float64) error {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		Release:          release,
		EnableTracing:    tracesSampleRate > 0,
		TracesSampleRate: tracesSampleRate,
	}); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	ConfigureScope(env, release)
	return nil
}

// ConfigureScope sets global Sentry scope tags and context related to the runtime and host.
func ConfigureScope(env, version string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("env", env)
		scope.SetTag("app_version", version)
		scope.SetTag("go_version", runtime.Version())
		scope.SetTag("goarch", runtime.GOARCH)
		scope.SetContext("host_info", map[string]interface{}{
			"hostname": hostname(),
		})
	})
}

// Flush waits for buffered events to be delivered.
func Flush() {
	sentry.Flush(2 * time.Second)
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
