package domain

import "slices"

// DefaultDistURL is the artifact server used when none is configured.
const DefaultDistURL = "https://dist.tea.xyz"

// DefaultPantryURL is the git remote the pantry is cloned from when none is configured.
const DefaultPantryURL = "https://github.com/teaxyz/pantry.git"

// Config is the process configuration. It is built once at startup and passed by value.
type Config struct {
	// Prefix is the root of the cellar and the shortcut directory.
	Prefix string
	// CacheDir holds downloaded bottles.
	CacheDir    string
	DistURL     string
	PantryURL   string
	Token       string
	Compression Compression
	CI          bool
	// PreferInstalled keeps an installed version that satisfies the accepted range
	// instead of selecting a newer pantry version.
	PreferInstalled bool
	Concurrency     int

	pantries []string
}

// NewConfig returns a config with the given pantry search path.
func NewConfig(pantries []string) Config {
	return Config{pantries: slices.Clone(pantries)}
}

// Pantries returns the pantry directories in precedence order.
func (c Config) Pantries() []string {
	return slices.Clone(c.pantries)
}

// Env is an ordered set of environment variables, each a list of path entries.
type Env struct {
	keys   []string
	values map[string][]string
}

// Add appends paths to key.
func (e *Env) Add(key string, paths ...string) {
	if len(paths) == 0 {
		return
	}
	if e.values == nil {
		e.values = make(map[string][]string)
	}
	if _, ok := e.values[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.values[key] = append(e.values[key], paths...)
}

// Keys returns the variable names in insertion order.
func (e Env) Keys() []string {
	return slices.Clone(e.keys)
}

// Get returns the path entries of key.
func (e Env) Get(key string) []string {
	return slices.Clone(e.values[key])
}

// Len returns the number of variables.
func (e Env) Len() int {
	return len(e.keys)
}
