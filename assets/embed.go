package assets

import (
	"bufio"
	"embed"
	"path"
	"strings"
)

//go:embed dict/*.txt
var FS embed.FS

// readLines returns the non-empty, non-comment lines of an embedded file.
// Lines are trimmed but otherwise untouched: casing is language specific
// and left to the caller.
func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// Dictionary returns the embedded word list for a language code.
func Dictionary(lang string) ([]string, error) {
	return readLines(path.Join("dict", lang+".txt"))
}

// Languages lists the language codes with an embedded word list.
func Languages() []string {
	entries, err := FS.ReadDir("dict")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if name := e.Name(); strings.HasSuffix(name, ".txt") {
			out = append(out, strings.TrimSuffix(name, ".txt"))
		}
	}
	return out
}
