package version

import (
	"encoding/json"
	"testing"
)

func TestBuildDefaults(t *testing.T) {
	info := Build()
	if info.Version == "" || info.Commit == "" || info.Date == "" {
		t.Fatalf("build info must not contain empty fields: %+v", info)
	}
	if info.Version != GetVersion() {
		t.Fatalf("Build version %q differs from GetVersion %q", info.Version, GetVersion())
	}
}

func TestBuildReflectsLinkerValues(t *testing.T) {
	oldVersion, oldCommit, oldDate := version, commit, date
	t.Cleanup(func() { version, commit, date = oldVersion, oldCommit, oldDate })

	version, commit, date = "v1.4.0", "abc123", "2026-03-01"

	info := Build()
	if got := info.String(); got != "version=v1.4.0 commit=abc123 date=2026-03-01" {
		t.Fatalf("unexpected string: %s", got)
	}

	raw, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"version":"v1.4.0","commit":"abc123","date":"2026-03-01"}` {
		t.Fatalf("unexpected json: %s", raw)
	}
}
