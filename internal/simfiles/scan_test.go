package simfiles

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"go.uber.org/zap"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return full
}

func TestScanFindsOnlyMatchingFiles(t *testing.T) {
	root := t.TempDir()

	matching := []string{
		"100/javamigration.eval.x86_64.nodeB-output/output/sim-output/-conversation-panel-nodeB/sim-requests-0.txt",
		"100/javamigration.eval.x86_64.nodeA-output/output/sim-output/-conversation-panel-nodeA/sim-requests-0.txt",
		"99/hostA.example/sim-requests-1.txt",
		"sim-requests-top.txt",
		".hidden/deep/er/sim-requests-x.txt",
	}
	other := []string{
		"100/notes.txt",
		"99/hostA.example/sim-requests-1.json",
		"99/hostA.example/SIM-REQUESTS-1.txt",
		"sim-requests.txt",
		"readme.md",
	}
	for _, rel := range matching {
		writeFile(t, root, rel, `{"requests":[]}`)
	}
	for _, rel := range other {
		writeFile(t, root, rel, "nope")
	}
	// Directories are searched, never matched.
	if err := os.MkdirAll(filepath.Join(root, "sim-requests-dir.txt"), 0755); err != nil {
		t.Fatal(err)
	}

	entries, err := NewScanner(zap.NewNop()).Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(entries) != len(matching) {
		t.Fatalf("got %d entries, want %d", len(entries), len(matching))
	}

	if !sort.SliceIsSorted(entries, func(i, j int) bool {
		return entries[i].DisplayName < entries[j].DisplayName
	}) {
		t.Error("entries not sorted by display name")
	}

	byRel := make(map[string]bool)
	for _, e := range entries {
		byRel[e.RelativePath] = true
		if e.FullPath != filepath.Join(root, filepath.FromSlash(e.RelativePath)) {
			t.Errorf("FullPath = %q for %q", e.FullPath, e.RelativePath)
		}
		if e.Size != int64(len(`{"requests":[]}`)) {
			t.Errorf("Size = %d for %q", e.Size, e.RelativePath)
		}
		if e.Modified <= 0 {
			t.Errorf("Modified = %v for %q", e.Modified, e.RelativePath)
		}
	}
	for _, rel := range matching {
		if !byRel[rel] {
			t.Errorf("missing %q", rel)
		}
	}
}

func TestScanEntryLabels(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "123/foo.bar/-conversation-panel-worker3/sim-requests-0.txt", "{}")

	entries, err := NewScanner(zap.NewNop()).Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	e := entries[0]
	if e.DisplayName != "123/worker3" || e.Instance != "worker3" {
		t.Errorf("labels = %q / %q", e.DisplayName, e.Instance)
	}
	if e.RunID == nil || *e.RunID != "123" {
		t.Errorf("RunID = %v", e.RunID)
	}
}

func TestScanSortOrderIsRepeatable(t *testing.T) {
	root := t.TempDir()
	// Same display name "5/w" for all three.
	writeFile(t, root, "5/w/c/sim-requests-0.txt", "{}")
	writeFile(t, root, "5/w/a/sim-requests-0.txt", "{}")
	writeFile(t, root, "5/w/b/sim-requests-0.txt", "{}")
	writeFile(t, root, "5/a/sim-requests-0.txt", "{}")

	s := NewScanner(zap.NewNop())
	first, err := s.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := s.Scan(context.Background(), root)
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		for j := range first {
			if first[j].RelativePath != again[j].RelativePath {
				t.Fatalf("order changed at %d: %q vs %q", j, first[j].RelativePath, again[j].RelativePath)
			}
		}
	}
	if first[0].DisplayName != "5/a" {
		t.Errorf("first = %q, want 5/a", first[0].DisplayName)
	}
	if first[1].RelativePath != "5/w/a/sim-requests-0.txt" {
		t.Errorf("ties not in walk order: %q", first[1].RelativePath)
	}
}

func TestScanEmptyDirectory(t *testing.T) {
	entries, err := NewScanner(zap.NewNop()).Scan(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("entries = %v, want empty non-nil slice", entries)
	}
}

func TestScanMissingRoot(t *testing.T) {
	_, err := NewScanner(zap.NewNop()).Scan(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestScanSkipsBrokenSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	writeFile(t, root, "1/a/sim-requests-ok.txt", "{}")
	if err := os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "1", "a", "sim-requests-broken.txt")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	entries, err := NewScanner(zap.NewNop()).Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(entries) != 1 || entries[0].RelativePath != "1/a/sim-requests-ok.txt" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestScanSymlinkedRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	target := t.TempDir()
	writeFile(t, target, "1/a/sim-requests-0.txt", "{}")
	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	entries, err := NewScanner(zap.NewNop()).Scan(context.Background(), link)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if want := filepath.Join(link, "1", "a", "sim-requests-0.txt"); entries[0].FullPath != want {
		t.Errorf("FullPath = %q, want %q", entries[0].FullPath, want)
	}
}

func TestScanCanceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "1/a/sim-requests-0.txt", "{}")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewScanner(zap.NewNop()).Scan(ctx, root); err == nil {
		t.Error("expected error from canceled scan")
	}
}
