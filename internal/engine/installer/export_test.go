package installer

// WithRunID makes the installer tag every run with id.
func (i *Installer) WithRunID(id string) *Installer {
	i.newRunID = func() string { return id }
	return i
}
