package hankey

import (
	"runtime/debug"
	"sync"
)

// Name is the command and module name.
const Name = "hankey"

// Release metadata. Set at link time, e.g.
//
//	go build -ldflags "-X github.com/ZaguanLabs/hankey.Version=1.2.0 -X github.com/ZaguanLabs/hankey.GitCommit=$(git rev-parse HEAD)"
//
// Empty values fall back to the VCS stamp the toolchain embeds in the binary.
var (
	Version   = "0.1.0"
	GitCommit = ""
	BuildDate = ""
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	Date      string
	Modified  bool
	GoVersion string
}

var (
	buildOnce sync.Once
	build     BuildInfo
)

// Build returns the release metadata merged with the embedded VCS stamp.
func Build() BuildInfo {
	buildOnce.Do(func() {
		build = BuildInfo{Version: Version, Commit: GitCommit, Date: BuildDate}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		build.GoVersion = info.GoVersion
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if build.Commit == "" {
					build.Commit = s.Value
				}
			case "vcs.time":
				if build.Date == "" {
					build.Date = s.Value
				}
			case "vcs.modified":
				build.Modified = s.Value == "true"
			}
		}
	})
	return build
}

// FullVersion returns Version with the short commit appended, and a
// "-dirty" suffix for builds from a modified tree.
func FullVersion() string {
	b := Build()
	v := b.Version
	if c := b.Commit; c != "" {
		if len(c) > 7 {
			c = c[:7]
		}
		v += "+" + c
		if b.Modified {
			v += "-dirty"
		}
	}
	return v
}

// UserAgent is sent with every provider request.
func UserAgent() string {
	return Name + "/" + Version + " (+https://github.com/ZaguanLabs/hankey)"
}
