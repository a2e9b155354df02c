package version

import (
	"strings"
	"testing"
)

func TestGet_DefaultsToDevVersion(t *testing.T) {
	info := Get()
	if info.Version != "dev" {
		t.Errorf("Version = %q, want dev", info.Version)
	}
}

func TestInfo_String_IncludesCommitAndDirty(t *testing.T) {
	info := Info{Version: "1.2.0", GitCommit: "abc1234", Dirty: true}
	s := info.String()
	if s != "1.2.0-abc1234-dirty" {
		t.Errorf("String = %q", s)
	}
	if !strings.HasPrefix(s, info.Version) {
		t.Errorf("String %q does not start with version", s)
	}
}

func TestInfo_String_PlainWhenNoCommit(t *testing.T) {
	info := Info{Version: "dev"}
	if s := info.String(); s != "dev" {
		t.Errorf("String = %q, want dev", s)
	}
}
