// Package shellenv derives the environment that makes hydrated packages usable from a shell.
package shellenv

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/zerr"
	"mvdan.cc/sh/v3/syntax"
)

// variables maps each exported variable to the entry subdirectories that feed it.
var variables = []struct {
	key     string
	subdirs []string
}{
	{key: "PATH", subdirs: []string{"bin", "sbin"}},
	{key: "MANPATH", subdirs: []string{"share/man", "man"}},
	{key: "PKG_CONFIG_PATH", subdirs: []string{"lib/pkgconfig", "share/pkgconfig"}},
	{key: "LIBRARY_PATH", subdirs: []string{"lib"}},
	{key: "CPATH", subdirs: []string{"include"}},
	{key: "XDG_DATA_DIRS", subdirs: []string{"share"}},
}

// Build returns the search paths contributed by entries, in entry order.
// Only subdirectories that exist are included; variables without any are omitted.
func Build(entries []domain.CellarEntry) domain.Env {
	var env domain.Env
	for _, v := range variables {
		var paths []string
		for _, entry := range entries {
			for _, sub := range v.subdirs {
				dir := filepath.Join(entry.Path, filepath.FromSlash(sub))
				if info, err := os.Stat(dir); err == nil && info.IsDir() && !slices.Contains(paths, dir) {
					paths = append(paths, dir)
				}
			}
		}
		env.Add(v.key, paths...)
	}
	return env
}

// Exports renders env as POSIX shell export lines that prepend to the current values.
func Exports(env domain.Env) (string, error) {
	var b strings.Builder
	for _, key := range env.Keys() {
		value, err := syntax.Quote(strings.Join(env.Get(key), string(os.PathListSeparator)), syntax.LangPOSIX)
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, "cannot quote environment value"), "variable", key)
		}
		b.WriteString("export " + key + "=" + value + `"${` + key + `:+:$` + key + `}"` + "\n")
	}
	return b.String(), nil
}
