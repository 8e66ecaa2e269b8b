package planner

import "testing"

func TestCatalogRunnerFor(t *testing.T) {
	catalog := NewCatalog("ubuntu-24.04", map[string]string{
		"linux/x86_64": "big-x86",
		"macos/arm64":  "macos-15",
		"plan9/mips":   "ignored",
	})

	if got := catalog.RunnerFor(OSLinux, ArchX86_64); got != "big-x86" {
		t.Fatalf("expected big-x86, got %q", got)
	}
	if got := catalog.RunnerFor(OSMacOS, ArchARM64); got != "macos-15" {
		t.Fatalf("expected macos-15, got %q", got)
	}
	if got := catalog.RunnerFor(OSWindows, ArchARM64); got != "ubuntu-24.04" {
		t.Fatalf("expected default runner, got %q", got)
	}
	if got := catalog.RunnerFor("plan9", "mips"); got != "ubuntu-24.04" {
		t.Fatalf("expected default runner for unknown platform, got %q", got)
	}
}

func TestPlatformLabels(t *testing.T) {
	tests := map[Platform]string{
		LinuxX86_64:  "Linux x86_64",
		WindowsARM64: "Windows arm64",
		MacOSX86_64:  "macOS x86_64",
		MacOSARM64:   "macOS arm64",
	}
	for platform, want := range tests {
		if got := platform.Label(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
	if LinuxARM64.Key() != "linux/arm64" {
		t.Fatalf("unexpected key %q", LinuxARM64.Key())
	}
}

func TestExtendedExcludesBaseline(t *testing.T) {
	for _, p := range Extended {
		if p == Baseline {
			t.Fatal("baseline must not be listed as an extended platform")
		}
	}
	if len(Extended) != 5 {
		t.Fatalf("expected 5 extended platforms, got %d", len(Extended))
	}
}
