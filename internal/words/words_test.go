package words

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedDictionary(t *testing.T) {
	d, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		lang, word string
		ok         bool
		def        string
	}{
		{"en", "CAT", true, "a small domesticated feline"},
		{"en", "cat", true, "a small domesticated feline"},
		{"en", "AT", true, ""},
		{"en", "XQZ", false, ""},
		{"tr", "kedi", true, "evcil hayvan"},
		{"tr", "KEDİ", true, "evcil hayvan"},
		{"de", "tür", true, ""},
		{"xx", "CAT", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.word, func(t *testing.T) {
			def, ok := d.Lookup(tt.lang, tt.word)
			if ok != tt.ok || def != tt.def {
				t.Fatalf("Lookup = (%q, %v), want (%q, %v)", def, ok, tt.def, tt.ok)
			}
		})
	}
	if got := d.Stats(); len(got) != 5 || got["en"] == 0 {
		t.Fatalf("stats = %v", got)
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	content := "# custom\nfoo\tsomething\n\nbar\n"
	if err := os.WriteFile(filepath.Join(dir, "en.txt"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if def, ok := d.Lookup("en", "FOO"); !ok || def != "something" {
		t.Fatalf("FOO = (%q, %v)", def, ok)
	}
	if _, ok := d.Lookup("en", "CAT"); ok {
		t.Fatal("embedded english list used despite override")
	}
	if _, ok := d.Lookup("fr", "CHAT"); !ok {
		t.Fatal("french should fall back to the embedded list")
	}
	if d.Stats()["en"] != 2 {
		t.Fatalf("stats = %v", d.Stats())
	}
}

func TestInitLoadsOnce(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "en.txt"), []byte("foo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Init(dir); err != nil {
		t.Fatal(err)
	}
	if err := Init(""); err != nil {
		t.Fatal(err)
	}
	d, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := d.Lookup("en", "FOO"); !ok {
		t.Fatal("default dictionary ignored the configured directory")
	}
}

func TestNormalizeTurkish(t *testing.T) {
	if got := Normalize("tr", "iş"); got != "İŞ" {
		t.Fatalf("Normalize = %q", got)
	}
	if got := Normalize("en", "is"); got != "IS" {
		t.Fatalf("Normalize = %q", got)
	}
}
