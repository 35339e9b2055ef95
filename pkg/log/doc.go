/*
Package log provides structured logging for Loadstore using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support filtering
by severity level.

Initialize once at startup:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

then either use the package-level helpers or derive a child logger per
component:

	logger := log.WithComponent("storage")
	logger.Info().Str("folder", name).Msg("folder exported")
*/
package log
