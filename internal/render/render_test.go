package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// resetRenderState clears globals between tests to avoid cross-test interference.
func resetRenderState() {
	globalVars = nil
	templateDir = ""
	embedTemplate = nil
}

func TestRenderHTML_EmbeddedOnly(t *testing.T) {
	resetRenderState()
	if err := Initialize(map[string]interface{}{"siteName": "Embedded"}, ""); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	out, err := RenderHTML("login", map[string]interface{}{"errorMsg": ""})
	if err != nil {
		t.Fatalf("RenderHTML returned error: %v", err)
	}
	if !strings.Contains(out, "Embedded") {
		t.Fatalf("expected global siteName in output")
	}
}

func TestRenderHTML_DirOverridesEmbedded(t *testing.T) {
	resetRenderState()
	tmpDir := t.TempDir()

	name := "error-internal.html"
	content := "OVERRIDE_ERROR_INTERNAL"
	if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp template: %v", err)
	}

	if err := Initialize(map[string]interface{}{}, tmpDir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	out, err := RenderHTML("error-internal", nil)
	if err != nil {
		t.Fatalf("RenderHTML returned error: %v", err)
	}
	if out != content {
		t.Fatalf("expected override content, got %q", out)
	}
}

func TestRenderHTML_MailTemplate(t *testing.T) {
	resetRenderState()
	if err := Initialize(map[string]interface{}{"siteName": "Sitec"}, ""); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	out, err := RenderHTML("mail/lead-notification", map[string]interface{}{
		"name":  "Ada",
		"email": "ada@example.com",
	})
	if err != nil {
		t.Fatalf("RenderHTML returned error: %v", err)
	}
	if !strings.Contains(out, "Ada") || !strings.Contains(out, "ada@example.com") {
		t.Fatalf("lead fields missing from rendered mail: %q", out)
	}
}

func TestRenderHTML_UnknownTemplate(t *testing.T) {
	resetRenderState()
	if err := Initialize(nil, ""); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if _, err := RenderHTML("does-not-exist", nil); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}
