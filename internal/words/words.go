// apps/go-server/internal/words/words.go
//
// Provides per-language dictionaries for word validation.
//
// Responsibilities:
//   - Load one word list per language from a directory or fall back to
//     the embedded defaults.
//   - Normalize words with the language's own upper-casing rules, so that
//     Turkish "i" and "ı" map to "İ" and "I".
//   - Answer Lookup(language, word) with the definition, if any.
//
// File format (both on disk and embedded):
//   WORD                one word per line
//   WORD<TAB>definition optional definition after a tab
//   # comment           ignored, as are blank lines
//
// The directory (config WORDS_DIR) holds <lang>.txt files (en.txt, tr.txt, ...).
//
// Initialization of the package default is run once (sync.Once).

package words

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/robalobadob/scrabble/apps/go-server/assets"
)

// Dictionary maps normalized words to definitions, per language.
// It is read-only after construction and safe for concurrent use.
type Dictionary struct {
	lists map[string]map[string]string
}

// FromLists builds a dictionary from raw lines in the file format above.
func FromLists(lists map[string][]string) *Dictionary {
	d := &Dictionary{lists: make(map[string]map[string]string, len(lists))}
	for lang, lines := range lists {
		d.lists[lang] = parse(lang, lines)
	}
	return d
}

// Load reads <lang>.txt for every embedded language from dir, falling back
// to the embedded list when dir is empty or the file is missing.
func Load(dir string) (*Dictionary, error) {
	lists := make(map[string][]string)
	for _, lang := range assets.Languages() {
		var (
			lines []string
			err   error
		)
		if dir != "" {
			lines, err = readWordFile(filepath.Join(dir, lang+".txt"))
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("words: %s: %w", lang, err)
			}
		}
		if lines == nil {
			if lines, err = assets.Dictionary(lang); err != nil {
				return nil, fmt.Errorf("words: embedded %s: %w", lang, err)
			}
		}
		lists[lang] = lines
	}
	d := FromLists(lists)
	if len(d.lists) == 0 {
		return nil, errors.New("words: no word lists found")
	}
	return d, nil
}

// Lookup reports whether word exists in the language's list and returns
// its definition ("" when none is recorded).
func (d *Dictionary) Lookup(lang, word string) (string, bool) {
	list, ok := d.lists[lang]
	if !ok {
		return "", false
	}
	def, ok := list[Normalize(lang, word)]
	return def, ok
}

// Stats returns the number of words per language.
func (d *Dictionary) Stats() map[string]int {
	out := make(map[string]int, len(d.lists))
	for lang, list := range d.lists {
		out[lang] = len(list)
	}
	return out
}

// Normalize upper-cases a word with the language's casing rules.
// A Caser is stateful, so one is built per call.
func Normalize(lang, word string) string {
	return cases.Upper(language.Make(lang)).String(strings.TrimSpace(word))
}

func parse(lang string, lines []string) map[string]string {
	out := make(map[string]string, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word, def, _ := strings.Cut(line, "\t")
		word = Normalize(lang, word)
		if word == "" || strings.ContainsAny(word, " ") {
			continue
		}
		out[word] = strings.TrimSpace(def)
	}
	return out
}

// readWordFile loads the raw lines of a word list file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

var (
	initOnce   sync.Once
	defaultDic *Dictionary
	initialErr error
)

// Init loads the package default dictionary exactly once from dir.
// Later calls return the first result whatever dir they pass.
func Init(dir string) error {
	initOnce.Do(func() {
		defaultDic, initialErr = Load(dir)
	})
	return initialErr
}

// Default returns the dictionary loaded by Init, or the embedded lists
// when Init was never called.
func Default() (*Dictionary, error) {
	if err := Init(""); err != nil {
		return nil, err
	}
	return defaultDic, nil
}
