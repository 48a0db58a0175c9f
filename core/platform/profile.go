// Package platform selects the static resource profile used to load and run models on the current host.
package platform

import (
	"runtime"
	"strings"
	"time"
)

// Model kinds
const (
	KindGGUF   = "gguf"
	KindLegacy = "legacy"
)

// Profile names
const (
	Constrained = "constrained"
	Standard    = "standard"
)

// Options are the resources handed to a model backend when loading and invoking a model of one kind.
type Options struct {
	ContextSize int  `json:"n_ctx,omitempty"`
	BatchSize   int  `json:"n_batch,omitempty"`
	Threads     int  `json:"n_threads"`
	GPULayers   int  `json:"n_gpu_layers,omitempty"`
	MLock       bool `json:"use_mlock"`
	Verbose     bool `json:"verbose"`
	OffloadKQV  bool `json:"offload_kqv"`
	Seed        int  `json:"seed,omitempty"`
	MaxTokens   int  `json:"max_tokens"`
}

// Profile is resolved once at process start and never mutated.
type Profile struct {
	Name       string        `json:"name"`
	OS         string        `json:"os"`
	Arch       string        `json:"arch"`
	GCInterval time.Duration `json:"gc_interval"`
	Reclaim    bool          `json:"reclaim"` // run the periodic memory reclaimer
	GGUF       Options       `json:"gguf"`
	Legacy     Options       `json:"legacy"`
}

// Options returns the option bundle for the given model kind; unknown kinds get the legacy bundle.
func (p Profile) Options(kind string) Options {
	if kind == KindGGUF {
		return p.GGUF
	}
	return p.Legacy
}

// IsConstrained reports whether p is the reduced-resources profile.
func (p Profile) IsConstrained() bool { return p.Name == Constrained }

func constrainedProfile() Profile {
	return Profile{
		Name:       Constrained,
		GCInterval: 60 * time.Second,
		Reclaim:    true,
		GGUF: Options{
			ContextSize: 2048,
			BatchSize:   128,
			Threads:     4,
			GPULayers:   20,
			MLock:       false,
			Verbose:     false,
			OffloadKQV:  true,
			Seed:        -1,
			MaxTokens:   300,
		},
		Legacy: Options{
			Threads:   4,
			Verbose:   false,
			MaxTokens: 300,
		},
	}
}

func standardProfile() Profile {
	return Profile{
		Name:       Standard,
		GCInterval: 120 * time.Second,
		Reclaim:    false,
		GGUF: Options{
			ContextSize: 4096,
			BatchSize:   512,
			Threads:     6,
			GPULayers:   40,
			MLock:       true,
			Verbose:     true,
			OffloadKQV:  true,
			Seed:        -1,
			MaxTokens:   500,
		},
		Legacy: Options{
			Threads:   6,
			Verbose:   true,
			MaxTokens: 500,
		},
	}
}

// Resolve selects the constrained profile iff goos is Darwin and goarch is 64-bit ARM.
// Anything else, including empty or unknown values, gets the standard profile.
func Resolve(goos, goarch string) Profile {
	goos = strings.ToLower(strings.TrimSpace(goos))
	goarch = strings.ToLower(strings.TrimSpace(goarch))

	var p Profile
	if goos == "darwin" && (goarch == "arm64" || goarch == "aarch64") {
		p = constrainedProfile()
	} else {
		p = standardProfile()
	}
	p.OS = goos
	p.Arch = goarch
	return p
}

// Detect resolves the profile of the running process.
func Detect() Profile {
	return Resolve(runtime.GOOS, runtime.GOARCH)
}
