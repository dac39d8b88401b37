package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCSVCommaDelimited(t *testing.T) {
	src := "Hostname,Ambiente,Equipe\nweb01,PRD,Infra\nweb02,Dev,Infra\n"

	ds, err := Load("servidores.csv", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := strings.Join(ds.OriginalHeaders(), "|"); got != "Hostname|Ambiente|Equipe" {
		t.Errorf("headers = %q", got)
	}
	if len(ds.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(ds.Rows))
	}
	if got := ds.Value(0, "hostname").String(); got != "web01" {
		t.Errorf("Value(0, hostname) = %q", got)
	}
}

func TestLoadCSVDetectsSemicolon(t *testing.T) {
	src := "Hostname;Ambiente\nweb01;PRD\n"

	ds, err := Load("servidores.csv", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Columns) != 2 {
		t.Fatalf("columns = %d, want 2 (semicolon not detected)", len(ds.Columns))
	}
	if got := ds.Value(0, "ambiente").String(); got != "PRD" {
		t.Errorf("Value(0, ambiente) = %q, want PRD", got)
	}
}

func TestLoadCSVDetectsTab(t *testing.T) {
	src := "Hostname\tAmbiente\nweb01\tPRD\n"

	ds, err := Load("servidores.csv", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Columns) != 2 {
		t.Fatalf("columns = %d, want 2 (tab not detected)", len(ds.Columns))
	}
}

func TestLoadCSVQuotedDelimiters(t *testing.T) {
	src := "Hostname,Descrição\nweb01,\"app, web e cache\"\n"

	ds, err := Load("servidores.csv", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := ds.Value(0, "descricao").String(); got != "app, web e cache" {
		t.Errorf("quoted value = %q", got)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := Load("servidores.txt", strings.NewReader("data"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDiscoverLocal(t *testing.T) {
	dir := t.TempDir()

	if _, err := DiscoverLocal(dir); !errors.Is(err, ErrNoSource) {
		t.Fatalf("empty dir: err = %v, want ErrNoSource", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "b_inventory.xlsx"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a_inventory.xlsx"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := DiscoverLocal(dir)
	if err != nil {
		t.Fatalf("DiscoverLocal: %v", err)
	}
	if filepath.Base(path) != "a_inventory.xlsx" {
		t.Errorf("path = %q, want first sorted xlsx", path)
	}

	if err := os.WriteFile(filepath.Join(dir, "servidores.xlsx"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	path, err = DiscoverLocal(dir)
	if err != nil {
		t.Fatalf("DiscoverLocal: %v", err)
	}
	if filepath.Base(path) != "servidores.xlsx" {
		t.Errorf("path = %q, want preferred servidores.xlsx", path)
	}
}

func TestCacheMemoizesByFingerprint(t *testing.T) {
	cache := NewCache()
	payload := []byte("Hostname,Ambiente\nweb01,PRD\n")

	first, err := cache.Load("inv.csv", payload)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := cache.Load("inv.csv", payload)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first != second {
		t.Error("same payload should return the memoized dataset")
	}
	if cache.Len() != 1 {
		t.Errorf("cache.Len() = %d, want 1", cache.Len())
	}

	// Different content under the same name is a different entry.
	other, err := cache.Load("inv.csv", []byte("Hostname,Ambiente\nweb02,Dev\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if other == first {
		t.Error("different payload must not hit the old entry")
	}

	cache.Invalidate()
	if cache.Len() != 0 {
		t.Errorf("cache.Len() after Invalidate = %d, want 0", cache.Len())
	}

	third, err := cache.Load("inv.csv", payload)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if third == first {
		t.Error("invalidated entry should be re-parsed")
	}
}

func TestCacheRejectsBadPayload(t *testing.T) {
	cache := NewCache()
	if _, err := cache.Load("inv.txt", []byte("x")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
	if cache.Len() != 0 {
		t.Error("failed loads must not be cached")
	}
}
