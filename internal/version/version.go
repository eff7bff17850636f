// Package version holds build information injected with ldflags:
//
//	go build -ldflags "-X github.com/wtask/linechat/internal/version.Version=v1.0.0"
package version

import (
	"runtime"

	"github.com/wtask/linechat/pkg/semver"
)

var (
	// Version - git tag or semantic version
	Version = "dev"
	// Commit - git commit SHA
	Commit = "unknown"
	// BuildTime - ISO 8601 build timestamp
	BuildTime = "unknown"
)

// Info - complete build information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get - returns the current build information.
// Semantic version tag is normalized, any other value is reported as is.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
	if v, err := semver.Parse(Version); err == nil {
		info.Version = v.String()
	}
	return info
}

func (i Info) String() string {
	return i.Version + " (" + i.Commit + ", " + i.GoVersion + ")"
}
