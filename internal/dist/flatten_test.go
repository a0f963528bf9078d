// SPDX-License-Identifier: MPL-2.0

package dist

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// writeFile creates a file with parent directories as needed.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, appDir, browserDir string)
		check func(t *testing.T, appDir, browserDir string)
	}{
		{
			name: "moves files and directories up one level",
			setup: func(t *testing.T, appDir, browserDir string) {
				writeFile(t, filepath.Join(browserDir, "index.html"), "<html></html>")
				writeFile(t, filepath.Join(browserDir, "main.js"), "console.log(1)")
				writeFile(t, filepath.Join(browserDir, "assets", "logo.svg"), "<svg/>")
			},
			check: func(t *testing.T, appDir, browserDir string) {
				if got := readFile(t, filepath.Join(appDir, "index.html")); got != "<html></html>" {
					t.Errorf("index.html content = %q", got)
				}
				if got := readFile(t, filepath.Join(appDir, "assets", "logo.svg")); got != "<svg/>" {
					t.Errorf("nested asset content = %q", got)
				}
				if _, err := os.Stat(browserDir); !os.IsNotExist(err) {
					t.Errorf("browser dir still exists after flatten")
				}
			},
		},
		{
			name: "overwrites colliding destination entries",
			setup: func(t *testing.T, appDir, browserDir string) {
				writeFile(t, filepath.Join(appDir, "main.js"), "stale")
				writeFile(t, filepath.Join(appDir, "assets", "old.css"), "stale")
				writeFile(t, filepath.Join(browserDir, "main.js"), "fresh")
				writeFile(t, filepath.Join(browserDir, "assets", "new.css"), "fresh")
			},
			check: func(t *testing.T, appDir, browserDir string) {
				if got := readFile(t, filepath.Join(appDir, "main.js")); got != "fresh" {
					t.Errorf("collision not overwritten, main.js = %q", got)
				}
				// The whole assets dir is replaced, not merged.
				if _, err := os.Stat(filepath.Join(appDir, "assets", "old.css")); !os.IsNotExist(err) {
					t.Errorf("stale assets/old.css survived the overwrite")
				}
				if got := readFile(t, filepath.Join(appDir, "assets", "new.css")); got != "fresh" {
					t.Errorf("assets/new.css = %q", got)
				}
			},
		},
		{
			name:  "empty browser dir just gets removed",
			setup: func(t *testing.T, appDir, browserDir string) {},
			check: func(t *testing.T, appDir, browserDir string) {
				if _, err := os.Stat(browserDir); !os.IsNotExist(err) {
					t.Errorf("browser dir still exists after flatten")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appDir := t.TempDir()
			browserDir := filepath.Join(appDir, "browser")
			if err := os.MkdirAll(browserDir, 0755); err != nil {
				t.Fatal(err)
			}
			tt.setup(t, appDir, browserDir)

			if err := Flatten(browserDir, appDir); err != nil {
				t.Fatalf("Flatten: %v", err)
			}
			tt.check(t, appDir, browserDir)
		})
	}
}

func TestFlattenMissingBrowserDir(t *testing.T) {
	appDir := t.TempDir()
	err := Flatten(filepath.Join(appDir, "browser"), appDir)
	if err == nil {
		t.Fatal("expected error for missing browser dir")
	}
	if !errors.Is(err, ErrMissingBuildOutput) {
		t.Errorf("expected ErrMissingBuildOutput, got %v", err)
	}
}

func TestFlattenBrowserPathIsFile(t *testing.T) {
	appDir := t.TempDir()
	browserPath := filepath.Join(appDir, "browser")
	writeFile(t, browserPath, "not a directory")

	err := Flatten(browserPath, appDir)
	if !errors.Is(err, ErrMissingBuildOutput) {
		t.Errorf("expected ErrMissingBuildOutput, got %v", err)
	}
}

func TestFlattenEntryNamedLikeBrowserDir(t *testing.T) {
	appDir := t.TempDir()
	browserDir := filepath.Join(appDir, "browser")
	writeFile(t, filepath.Join(browserDir, "browser", "nested.js"), "nested")
	writeFile(t, filepath.Join(browserDir, "zz-late.js"), "late")

	// The nested "browser" entry's destination is the source dir itself;
	// nothing may be lost, neither the entry nor its later siblings.
	if err := Flatten(browserDir, appDir); err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if got := readFile(t, filepath.Join(appDir, "browser", "nested.js")); got != "nested" {
		t.Errorf("nested.js content = %q", got)
	}
	if got := readFile(t, filepath.Join(appDir, "zz-late.js")); got != "late" {
		t.Errorf("zz-late.js content = %q", got)
	}

	// No staging leftovers beside the real entries.
	entries, err := os.ReadDir(appDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Name() != "browser" || entries[1].Name() != "zz-late.js" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("app dir entries = %v, want [browser zz-late.js]", names)
	}
}

func TestFlattenPartialFailureReportsUnmoved(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directory permission bits are not enforced on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root bypasses permission checks")
	}

	appDir := filepath.Join(t.TempDir(), "app")
	browserDir := filepath.Join(appDir, "browser")
	writeFile(t, filepath.Join(browserDir, "index.html"), "<html></html>")
	writeFile(t, filepath.Join(browserDir, "main.js"), "app")

	// A read-only destination makes every rename out of browserDir fail.
	if err := os.Chmod(appDir, 0555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(appDir, 0755) })

	err := Flatten(browserDir, appDir)
	if !errors.Is(err, ErrPartialFlatten) {
		t.Fatalf("expected ErrPartialFlatten, got %v", err)
	}
	var pfe *PartialFlattenError
	if !errors.As(err, &pfe) {
		t.Fatalf("expected *PartialFlattenError, got %T", err)
	}
	if len(pfe.Unmoved) != 2 || pfe.Unmoved[0] != "index.html" || pfe.Unmoved[1] != "main.js" {
		t.Errorf("Unmoved = %v, want [index.html main.js]", pfe.Unmoved)
	}
	if pfe.Cause == nil {
		t.Error("Cause should carry the move error")
	}

	// The unmoved entries stayed in place, so a rerun finishes the job.
	if err := os.Chmod(appDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := Flatten(browserDir, appDir); err != nil {
		t.Fatalf("rerun after fixing permissions: %v", err)
	}
	if got := readFile(t, filepath.Join(appDir, "main.js")); got != "app" {
		t.Errorf("main.js = %q after rerun", got)
	}
}

func TestFlattenRerunIsIdempotent(t *testing.T) {
	appDir := t.TempDir()
	browserDir := filepath.Join(appDir, "browser")

	populate := func() {
		writeFile(t, filepath.Join(browserDir, "index.html"), "<html></html>")
		writeFile(t, filepath.Join(browserDir, "main.js"), "app")
	}

	populate()
	if err := Flatten(browserDir, appDir); err != nil {
		t.Fatal(err)
	}
	first := snapshotTree(t, appDir)

	// A rerun re-populates the browser dir (fresh build) and flattens again.
	populate()
	if err := Flatten(browserDir, appDir); err != nil {
		t.Fatal(err)
	}
	second := snapshotTree(t, appDir)

	if len(first) != len(second) {
		t.Fatalf("tree changed across reruns: %v vs %v", first, second)
	}
	for path, content := range first {
		if second[path] != content {
			t.Errorf("file %s changed across reruns", path)
		}
	}
}

// snapshotTree maps relative file paths to their contents.
func snapshotTree(t *testing.T, root string) map[string]string {
	t.Helper()
	tree := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		tree[rel] = readFile(t, path)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return tree
}
