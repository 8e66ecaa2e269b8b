package planner

import "fmt"

type OS string

const (
	OSLinux   OS = "linux"
	OSWindows OS = "windows"
	OSMacOS   OS = "macos"
)

type Arch string

const (
	ArchX86_64 Arch = "x86_64"
	ArchARM64  Arch = "arm64"
)

// Platform is a logical (os, arch) pair a job can fan out to.
type Platform struct {
	OS   OS
	Arch Arch
}

// Key is the "os/arch" form used in configuration.
func (p Platform) Key() string {
	return string(p.OS) + "/" + string(p.Arch)
}

// Label is the human form used in job names, e.g. "macOS arm64".
func (p Platform) Label() string {
	name := string(p.OS)
	switch p.OS {
	case OSLinux:
		name = "Linux"
	case OSWindows:
		name = "Windows"
	case OSMacOS:
		name = "macOS"
	}
	return fmt.Sprintf("%s %s", name, p.Arch)
}

// slug is used in cache keys, e.g. "macos-arm64".
func (p Platform) slug() string {
	return string(p.OS) + "-" + string(p.Arch)
}

var (
	LinuxX86_64   = Platform{OS: OSLinux, Arch: ArchX86_64}
	LinuxARM64    = Platform{OS: OSLinux, Arch: ArchARM64}
	WindowsX86_64 = Platform{OS: OSWindows, Arch: ArchX86_64}
	WindowsARM64  = Platform{OS: OSWindows, Arch: ArchARM64}
	MacOSX86_64   = Platform{OS: OSMacOS, Arch: ArchX86_64}
	MacOSARM64    = Platform{OS: OSMacOS, Arch: ArchARM64}
)

// Baseline runs on every trigger.
var Baseline = LinuxX86_64

// Extended platforms run only for merge-train and manual or scheduled runs.
var Extended = []Platform{LinuxARM64, WindowsX86_64, WindowsARM64, MacOSX86_64, MacOSARM64}

// Catalog maps platforms to runner labels.
type Catalog struct {
	Default string
	runners map[Platform]string
}

// NewCatalog builds a catalog from "os/arch" keyed labels. Keys that do not
// name a known platform are ignored.
func NewCatalog(defaultRunner string, runners map[string]string) Catalog {
	c := Catalog{
		Default: defaultRunner,
		runners: make(map[Platform]string, len(runners)),
	}
	for _, p := range append([]Platform{Baseline}, Extended...) {
		if label, ok := runners[p.Key()]; ok && label != "" {
			c.runners[p] = label
		}
	}
	return c
}

// RunnerFor returns the runner label for a platform, or the default runner
// when the catalog has no entry.
func (c Catalog) RunnerFor(os OS, arch Arch) string {
	if label, ok := c.runners[Platform{OS: os, Arch: arch}]; ok {
		return label
	}
	return c.Default
}

func (c Catalog) runner(p Platform) string {
	return c.RunnerFor(p.OS, p.Arch)
}
