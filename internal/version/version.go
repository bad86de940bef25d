// Package version reports the qconv build: release version, commit and
// build time from -ldflags, falling back to the VCS stamp of the Go
// toolchain.
package version

import (
	"runtime/debug"
	"time"
)

var (
	// Version is the release version (set via -ldflags).
	Version = ""
	// Commit is the git commit hash (set via -ldflags).
	Commit = ""
	// BuildTime is the build timestamp (set via -ldflags).
	BuildTime = ""
)

type Info struct {
	Version   string
	Commit    string
	BuildTime string
	Modified  bool
}

func Resolve() Info {
	return resolve(Info{Version: Version, Commit: Commit, BuildTime: BuildTime}, readBuildInfo, time.Now)
}

func readBuildInfo() map[string]string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	out := make(map[string]string, len(bi.Settings)+1)
	for _, s := range bi.Settings {
		out[s.Key] = s.Value
	}
	if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		out["main.version"] = bi.Main.Version
	}
	return out
}

func resolve(info Info, build func() map[string]string, now func() time.Time) Info {
	settings := build()
	if info.Commit == "" {
		info.Commit = settings["vcs.revision"]
		info.Modified = settings["vcs.modified"] == "true"
	}
	if info.BuildTime == "" {
		info.BuildTime = settings["vcs.time"]
	}
	if info.Version == "" {
		switch {
		case settings["main.version"] != "":
			info.Version = settings["main.version"]
		case info.BuildTime != "":
			info.Version = info.BuildTime
		default:
			info.Version = now().UTC().Format("20060102T150405Z")
		}
	}
	return info
}

func String() string {
	return Resolve().String()
}

func (i Info) String() string {
	if i.Commit == "" {
		return i.Version
	}
	s := i.Version + " (" + shortCommit(i.Commit)
	if i.Modified {
		s += "+dirty"
	}
	return s + ")"
}

func shortCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}
