package version

import "runtime/debug"

// Version is set at build time:
//
//	go build -ldflags "-X github.com/davidduclam/movietracker/internal/version.Version=1.2.0"
var Version = ""

type Info struct {
	Version string `json:"version"`
}

// Load falls back to the module version recorded by the go tool, then "dev".
func Load() Info {
	if Version != "" {
		return Info{Version: Version}
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return Info{Version: bi.Main.Version}
	}
	return Info{Version: "dev"}
}
