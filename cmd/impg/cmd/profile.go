package cmd

import (
	"github.com/pkg/profile"
)

// startProfiling wraps a subcommand's Runner body with CPU/heap profiling
// when requested, following shenwei356-wfa's benchmark harness use of
// github.com/pkg/profile. At most one of cpuPath/memPath is expected to be
// set; if both are, CPU profiling wins.
func startProfiling(cpuPath, memPath string) func() {
	switch {
	case cpuPath != "":
		return profile.Start(profile.CPUProfile, profile.ProfilePath(cpuPath)).Stop
	case memPath != "":
		return profile.Start(profile.MemProfile, profile.ProfilePath(memPath)).Stop
	default:
		return func() {}
	}
}
