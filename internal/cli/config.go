package cli

// Config holds the configuration for one generator run
type Config struct {
	// Directories to scan; a trailing "/..." scans recursively
	Directories []string

	// Verbose enables detailed logging and error reporting
	Verbose bool

	// Strict turns warnings, such as a module that does not require castor,
	// into failures
	Strict bool
}
