package build

import (
	"fmt"
	"runtime"
	"strings"

	_ "embed"
)

//go:embed VERSION
var rawVersion []byte

// Build information, overridable with -ldflags.
var (
	Version   = ""
	Commit    = ""
	GoVersion = runtime.Version()
	Platform  = runtime.GOOS + "/" + runtime.GOARCH
)

//nolint:gochecknoinits // init version.
func init() {
	if Version == "" {
		Version = strings.TrimSpace(string(rawVersion))
	}
}

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func GetBuildInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		GoVersion: GoVersion,
		Platform:  Platform,
	}
}

func (i Info) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Version: %s\n", i.Version)

	if i.Commit != "" {
		fmt.Fprintf(&sb, "Commit: %s\n", i.Commit)
	}

	fmt.Fprintf(&sb, "Go Version: %s\nPlatform: %s\n", i.GoVersion, i.Platform)

	return sb.String()
}
