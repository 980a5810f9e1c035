package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderWritesEscapedArtifact(t *testing.T) {
	t.Parallel()

	r := NewSVG(filepath.Join(t.TempDir(), "tmp"))

	path, err := r.Render(context.Background(), "A&B<C>")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if filepath.Ext(path) != ".svg" {
		t.Errorf("artifact path = %q, want .svg", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	content := string(raw)
	if !strings.Contains(content, "A&amp;B&lt;C&gt;") {
		t.Errorf("artifact does not escape plate text: %s", content)
	}
	if strings.Contains(content, "A&B<C>") {
		t.Error("artifact carries raw unescaped text")
	}
}

func TestRenderProducesFreshArtifacts(t *testing.T) {
	t.Parallel()

	r := NewSVG(t.TempDir())

	first, err := r.Render(context.Background(), "MYPL8")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := r.Render(context.Background(), "MYPL8")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if first == second {
		t.Errorf("both renders produced %q, want distinct artifacts", first)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	r := NewSVG(t.TempDir())

	path, err := r.Render(context.Background(), "MYPL8")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := r.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("artifact still exists after Remove: %v", err)
	}

	if err := r.Remove(path); err != nil {
		t.Errorf("Remove of missing artifact: %v", err)
	}
	if err := r.Remove(""); err != nil {
		t.Errorf("Remove of empty path: %v", err)
	}
}
