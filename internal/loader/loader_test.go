package loader

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Calc.pas", "unit Calc;")
	writeFile(t, root, "Unit4.dfm", "object Form4: TForm4")
	writeFile(t, root, "Demo.dpr", "program Demo;")
	writeFile(t, root, "readme.txt", "not source")
	writeFile(t, root, "sub/Extra.PAS", "unit Extra;")

	files, err := Load(root, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"Calc.pas", "Demo.dpr", "Unit4.dfm", "sub/Extra.PAS"}
	if len(files) != len(want) {
		t.Fatalf("loaded %d files, want %d: %+v", len(files), len(want), files)
	}
	for i, path := range want {
		if files[i].Path != path {
			t.Errorf("[%d] Path = %q, want %q", i, files[i].Path, path)
		}
	}
	if files[0].Content != "unit Calc;" {
		t.Errorf("Content = %q", files[0].Content)
	}
}

func TestLoad_IgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Main.pas", "unit Main;")
	writeFile(t, root, "__history/Main.pas", "unit Main;")
	writeFile(t, root, "sub/backup.~pas", "old copy")

	ignore := []string{"__history/**", "**/*.~pas"}
	files, err := Load(root, ignore)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(files) != 1 || files[0].Path != "Main.pas" {
		t.Errorf("files = %+v, want only Main.pas", files)
	}
}

func TestLoad_MissingRoot(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Error("Load() error = nil, want error for missing root")
	}
}
