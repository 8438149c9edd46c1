// Package preset locates and loads the JSON preset file that supplies
// field values below the command line in precedence.
package preset

import "os"

// Origin records where a preset path came from.
type Origin int

const (
	OriginNone Origin = iota
	OriginFlag
	OriginEnv
	OriginConfig
)

func (o Origin) String() string {
	switch o {
	case OriginFlag:
		return "flag"
	case OriginEnv:
		return "env"
	case OriginConfig:
		return "config"
	}
	return "none"
}

// Source is a resolved preset path.
type Source struct {
	Path   string
	Origin Origin
}

// Locator picks the preset path for one invocation.
type Locator struct {
	EnvVar      string // Environment variable holding a path; empty disables it
	DefaultPath string // Used when neither the flag nor the variable is set
	LookupEnv   func(string) (string, bool)
}

// Locate applies the precedence flag > environment > default. An empty
// string in any position counts as unset.
func (l Locator) Locate(flagPath string, flagSet bool) Source {
	if flagSet && flagPath != "" {
		return Source{Path: flagPath, Origin: OriginFlag}
	}
	if l.EnvVar != "" {
		lookup := l.LookupEnv
		if lookup == nil {
			lookup = os.LookupEnv
		}
		if p, ok := lookup(l.EnvVar); ok && p != "" {
			return Source{Path: p, Origin: OriginEnv}
		}
	}
	if l.DefaultPath != "" {
		return Source{Path: l.DefaultPath, Origin: OriginConfig}
	}
	return Source{}
}
