package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const messyDoc = `name: Messy
version: "1.0"
blocks:
  zeta:
    type: action
  alpha:
    type: trigger
connections:
  - from: alpha.out
    to: zeta.in
`

func writeTempDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp doc: %v", err)
	}
	return path
}

func TestRunFmtWriteInPlace(t *testing.T) {
	c := New(io.Discard, LogInfo)
	path := writeTempDoc(t, messyDoc)

	if err := c.runFmt(path, true, false); err != nil {
		t.Fatalf("runFmt: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, `version: "1.0"`) {
		t.Errorf("formatted doc does not start with version:\n%s", text)
	}
	if strings.Index(text, "alpha") > strings.Index(text, "zeta") {
		t.Error("blocks not reordered by id")
	}

	// Formatting again must be a no-op.
	if err := c.runFmt(path, false, true); err != nil {
		t.Errorf("check after format: %v", err)
	}
}

func TestRunFmtCheckFailsOnMessyDoc(t *testing.T) {
	c := New(io.Discard, LogInfo)
	path := writeTempDoc(t, messyDoc)

	err := c.runFmt(path, false, true)
	if err == nil || !strings.Contains(err.Error(), "not canonically formatted") {
		t.Errorf("err = %v, want check failure", err)
	}
}

func TestRunFmtRejectsMalformedDoc(t *testing.T) {
	c := New(io.Discard, LogInfo)
	path := writeTempDoc(t, "blocks: [unclosed")

	if err := c.runFmt(path, false, false); err == nil {
		t.Error("expected parse error")
	}
}
