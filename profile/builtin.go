package profile

import (
	"embed"
	"path"
	"sort"
	"strings"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// DefaultBuiltin is the profile used when none is chosen.
const DefaultBuiltin = "eliza"

// Builtin returns the named embedded profile.
func Builtin(name string) (*Profile, bool) {
	data, err := builtinFS.ReadFile(path.Join("builtin", name+".yaml"))
	if err != nil {
		return nil, false
	}
	p, err := Parse(data)
	if err != nil {
		// Embedded profiles are covered by tests.
		panic("profile: builtin " + name + ": " + err.Error())
	}
	return p, true
}

// Builtins lists the embedded profile names.
func Builtins() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
