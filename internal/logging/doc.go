// Package logging provides structured JSON logging with size-based file
// rotation. Logs are written to ~/.insightql/logs/ and, by default, mirrored
// to stderr.
package logging
