// Package appcontext provides the application context interface shared by
// every command package.
package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/custody"
	"github.com/agentstation/custody/internal/store"
)

// Interface defines what commands need from the application. The App in
// cmd/custody/app implements it; tests use Mock.
type Interface interface {
	// Engine returns the configured normalization engine, built once.
	Engine() (*custody.Engine, error)

	// Archive opens the configured sqlite archive. The caller closes it.
	Archive(ctx context.Context) (*store.Archive, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
