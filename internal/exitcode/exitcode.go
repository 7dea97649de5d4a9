// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, blank text, row out of range).
	UserError = 1

	// ConfigError indicates a config/auth error, including a store that was
	// never initialized.
	ConfigError = 2

	// BackendError indicates a store/network error.
	BackendError = 3
)
