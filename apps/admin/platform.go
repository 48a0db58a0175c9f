package main

import (
	"encoding/json"
	"runtime"

	"github.com/trezcool/unichat/core/platform"
)

// printPlatform prints the profile resolved for goos/goarch, defaulting to the running host.
func (cli *commandLine) printPlatform(goos, goarch string) error {
	if goos == "" {
		goos = runtime.GOOS
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(platform.Resolve(goos, goarch))
}
