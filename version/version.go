// Package version embeds build version information for run provenance.
// Every training run logs and checkpoints the harness version so a stored
// experiment can be traced back to the code that produced it.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
)

// Info is the version record attached to run logs.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	Dirty     bool   `json:"dirty"`
}

// Get resolves version information, preferring -ldflags values and falling
// back to the binary's embedded VCS metadata.
func Get() Info {
	info := Info{Version: Version, GitCommit: GitCommit}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	return info
}

// String renders a short human-readable version.
func (i Info) String() string {
	out := i.Version
	if i.GitCommit != "" {
		out = fmt.Sprintf("%s-%s", out, i.GitCommit)
	}
	if i.Dirty {
		out += "-dirty"
	}
	return out
}
