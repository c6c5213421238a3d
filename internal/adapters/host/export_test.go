package host

// NewDetectorFor creates a Detector for an arbitrary platform.
func NewDetectorFor(goos, goarch string, ci bool) *Detector {
	return &Detector{goos: goos, goarch: goarch, ci: ci}
}

// NewToolLocatorFor creates a ToolLocator with a fixed PATH and system directories.
func NewToolLocatorFor(prefix, goos, path, usrBin string, devTools ...string) *ToolLocator {
	return &ToolLocator{
		prefix:   prefix,
		goos:     goos,
		path:     func() string { return path },
		usrBin:   usrBin,
		devTools: devTools,
	}
}
