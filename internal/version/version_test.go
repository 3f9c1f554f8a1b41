package version

import "testing"

func TestVersionStringNonEmpty(t *testing.T) {
	if s := String(); s == "" {
		t.Fatalf("version string is empty")
	}
}

func TestVersionStringWithCommit(t *testing.T) {
	old := Commit
	Commit = "deadbeef"
	t.Cleanup(func() { Commit = old })
	if got, want := String(), Version+" (deadbeef)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestIsDevelopment(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	t.Setenv(EnvEnvironment, "")
	Version = "1.4.0"
	if IsDevelopment() {
		t.Fatalf("release version must not be a development build")
	}
	Version = "1.4.0-dev"
	if !IsDevelopment() {
		t.Fatalf("-dev suffix should mark a development build")
	}
	Version = "1.4.0"
	t.Setenv(EnvEnvironment, "Development")
	if !IsDevelopment() {
		t.Fatalf("%s=development should mark a development build", EnvEnvironment)
	}
}
