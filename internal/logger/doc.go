// Package logger wraps zap with the pieces the CLI needs:
//   - a global sugared logger writing a compact console format to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing for the --log-level flag,
//   - leveled shortcuts (DebugKV, InfoKV, WarnKV, ErrorKV).
//
// Services receive a context and pull the logger out of it, so per-tool
// fields added with WithKV follow every message of that tool's pipeline.
package logger
