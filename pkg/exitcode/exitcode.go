// Package exitcode provides standardized exit codes for assetpress
package exitcode

// Exit codes for assetpress CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	TransformError  = 3
	FileSystemError = 4
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case TransformError:
		return "Transform error"
	case FileSystemError:
		return "File system error"
	default:
		return "Unknown error"
	}
}
