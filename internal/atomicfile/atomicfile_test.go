package atomicfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.ini")

	if err := WriteFile(path, []byte("[A]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, []byte("[B]\n"), 0); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[B]\n" {
		t.Errorf("content = %q", data)
	}
	st, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Errorf("zero perm should keep the existing mode, got %v", st.Mode().Perm())
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestTempPathCommit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	tmp, err := TempPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(tmp) != dir {
		t.Errorf("temp file should live next to the target, got %s", tmp)
	}
	if err := os.WriteFile(tmp, []byte("db"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Commit(tmp, path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Error("temp file should be gone after commit")
	}
	if data, _ := os.ReadFile(path); string(data) != "db" {
		t.Errorf("content = %q", data)
	}
}
