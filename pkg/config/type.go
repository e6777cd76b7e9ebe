package config

// Config represents the complete application configuration that
// pallet supports.
type Config struct {
	// DistDir is where emitted packages land.
	DistDir string

	// FilesBase resolves manifest entries declared without a
	// destination.
	FilesBase string

	// Store names the backend persisting build counters.
	Store string

	// Compression selects the archive member encoding, "gzip" or
	// "xz".
	Compression string

	LogLevel string
}
