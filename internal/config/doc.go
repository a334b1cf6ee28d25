// Package config loads sonority's TOML configuration.
//
// Sections:
//   - analyzer: the identity stamped into payloads
//   - streaming: the true-peak ceiling and the platform loudness targets
//   - output: the default CLI output format
//   - report: batch reporting concurrency
package config
