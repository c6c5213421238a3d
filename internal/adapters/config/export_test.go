package config

// NewLoaderForOS creates a Loader that behaves as if running on goos with the given home directory.
func NewLoaderForOS(l *Loader, goos string, home func() (string, error)) *Loader {
	l.goos = goos
	l.homeDir = home
	return l
}
