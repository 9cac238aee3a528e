// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder writing to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing for the --log-level flag,
//   - convenience functions (Info, InfoKV, WarnKV, etc.).
//
// The packager takes a context and extracts the logger from it, so every
// step of a run logs under the same name and fields.
package logger
