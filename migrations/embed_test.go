package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func TestMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) == 0 {
		t.Fatalf("expected embedded migrations")
	}
	seen := map[string]int{}
	for _, name := range names {
		base := strings.TrimSuffix(strings.TrimSuffix(name, ".up.sql"), ".down.sql")
		seen[base]++
	}
	for base, n := range seen {
		if n != 2 {
			t.Fatalf("migration %s has %d files, want up and down", base, n)
		}
	}
}

func TestMigrationsLoadWithIOFS(t *testing.T) {
	src, err := iofs.New(FS, ".")
	if err != nil {
		t.Fatalf("iofs: %v", err)
	}
	defer src.Close()

	version, err := src.First()
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected first version 1, got %d", version)
	}
	count := 1
	for {
		next, err := src.Next(version)
		if err != nil {
			break
		}
		version = next
		count++
	}
	if count != 7 {
		t.Fatalf("expected 7 migrations, got %d", count)
	}
}
