package domain

// LinkEntry is a shortcut in <prefix>/bin pointing into one cellar entry.
type LinkEntry struct {
	Shortcut string
	// Path is the shortcut location.
	Path string
	// Target is the executable the shortcut resolves to.
	Target string
	Entry  NodeID
}

// LinkResult reports what a link run changed.
type LinkResult struct {
	Linked []LinkEntry
	// Shadowed lists the shortcuts whose previous target was replaced.
	// The displaced cellar entries are untouched and can be linked again.
	Shadowed []LinkEntry
}
