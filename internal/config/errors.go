package config

const (
	// Storage errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"
	ErrOpenStoreFmt          = "Failed to open content store: %v"
	ErrLoadContent           = "Error loading content"
	ErrReloadingContent      = "Error reloading content"

	// Admin errors
	ErrWrongPassphrase     = "Wrong passphrase"
	ErrTooManyAttempts     = "Too many login attempts, try again later"
	ErrSessionRequired     = "Admin session required"
	ErrInternalServerError = "Internal server error"

	// Config errors
	ErrWriteConfigContentFmt = "Failed to write config content: %v"
	ErrCreateTempFileFmt     = "Failed to create temp file: %v"
)
