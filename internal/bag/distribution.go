// apps/go-server/internal/bag/distribution.go
//
// Standard letter distributions per supported language (blank tiles are
// not part of the game). Letters are stored upper case in the casing the
// language uses, so Turkish keeps both I and İ.

package bag

// Letter is one row of a distribution table.
type Letter struct {
	Letter string `json:"letter"`
	Value  int    `json:"value"`
	Count  int    `json:"count"`
	Vowel  bool   `json:"vowel"`
}

// Distribution is the initial content of a bag.
type Distribution struct {
	Language string   `json:"language"`
	Letters  []Letter `json:"letters"`
}

// Size is the total number of tiles.
func (d Distribution) Size() int {
	n := 0
	for _, l := range d.Letters {
		n += l.Count
	}
	return n
}

// Lookup returns the table row for letter.
func (d Distribution) Lookup(letter string) (Letter, bool) {
	for _, l := range d.Letters {
		if l.Letter == letter {
			return l, true
		}
	}
	return Letter{}, false
}

// Languages lists the supported language codes.
var Languages = []string{"en", "fr", "de", "nl", "tr"}

// ForLanguage returns the distribution for a language code.
func ForLanguage(lang string) (Distribution, bool) {
	tbl, ok := tables[lang]
	if !ok {
		return Distribution{}, false
	}
	return Distribution{Language: lang, Letters: parse(tbl.rows, tbl.vowels)}, true
}

type table struct {
	vowels string
	rows   []row
}

type row struct {
	letter string
	count  int
	value  int
}

func parse(rows []row, vowels string) []Letter {
	out := make([]Letter, 0, len(rows))
	for _, r := range rows {
		out = append(out, Letter{
			Letter: r.letter,
			Value:  r.value,
			Count:  r.count,
			Vowel:  containsLetter(vowels, r.letter),
		})
	}
	return out
}

func containsLetter(set, letter string) bool {
	for _, r := range set {
		if string(r) == letter {
			return true
		}
	}
	return false
}

var tables = map[string]table{
	"en": {vowels: "AEIOU", rows: []row{
		{"A", 9, 1}, {"B", 2, 3}, {"C", 2, 3}, {"D", 4, 2}, {"E", 12, 1}, {"F", 2, 4},
		{"G", 3, 2}, {"H", 2, 4}, {"I", 9, 1}, {"J", 1, 8}, {"K", 1, 5}, {"L", 4, 1},
		{"M", 2, 3}, {"N", 6, 1}, {"O", 8, 1}, {"P", 2, 3}, {"Q", 1, 10}, {"R", 6, 1},
		{"S", 4, 1}, {"T", 6, 1}, {"U", 4, 1}, {"V", 2, 4}, {"W", 2, 4}, {"X", 1, 8},
		{"Y", 2, 4}, {"Z", 1, 10},
	}},
	"fr": {vowels: "AEIOUY", rows: []row{
		{"A", 9, 1}, {"B", 2, 3}, {"C", 2, 3}, {"D", 3, 2}, {"E", 15, 1}, {"F", 2, 4},
		{"G", 2, 2}, {"H", 2, 4}, {"I", 8, 1}, {"J", 1, 8}, {"K", 1, 10}, {"L", 5, 1},
		{"M", 3, 2}, {"N", 6, 1}, {"O", 6, 1}, {"P", 2, 3}, {"Q", 1, 8}, {"R", 6, 1},
		{"S", 6, 1}, {"T", 6, 1}, {"U", 6, 1}, {"V", 2, 4}, {"W", 1, 10}, {"X", 1, 10},
		{"Y", 1, 10}, {"Z", 1, 10},
	}},
	"de": {vowels: "AEIOUÄÖÜ", rows: []row{
		{"A", 5, 1}, {"Ä", 1, 6}, {"B", 2, 3}, {"C", 2, 4}, {"D", 4, 1}, {"E", 15, 1},
		{"F", 2, 4}, {"G", 3, 2}, {"H", 4, 2}, {"I", 6, 1}, {"J", 1, 6}, {"K", 2, 4},
		{"L", 3, 2}, {"M", 4, 3}, {"N", 9, 1}, {"O", 3, 2}, {"Ö", 1, 8}, {"P", 1, 4},
		{"Q", 1, 10}, {"R", 6, 1}, {"S", 7, 1}, {"T", 6, 1}, {"U", 6, 1}, {"Ü", 1, 6},
		{"V", 1, 6}, {"W", 1, 3}, {"X", 1, 8}, {"Y", 1, 10}, {"Z", 1, 3},
	}},
	"nl": {vowels: "AEIOU", rows: []row{
		{"A", 6, 1}, {"B", 2, 3}, {"C", 2, 5}, {"D", 5, 2}, {"E", 18, 1}, {"F", 2, 4},
		{"G", 3, 3}, {"H", 2, 4}, {"I", 4, 1}, {"J", 2, 4}, {"K", 3, 3}, {"L", 3, 3},
		{"M", 3, 3}, {"N", 10, 1}, {"O", 6, 1}, {"P", 2, 3}, {"Q", 1, 10}, {"R", 5, 2},
		{"S", 5, 2}, {"T", 5, 2}, {"U", 3, 4}, {"V", 2, 4}, {"W", 2, 5}, {"X", 1, 8},
		{"Y", 1, 8}, {"Z", 2, 4},
	}},
	"tr": {vowels: "AEIİOÖUÜ", rows: []row{
		{"A", 12, 1}, {"B", 2, 3}, {"C", 2, 4}, {"Ç", 2, 4}, {"D", 2, 3}, {"E", 8, 1},
		{"F", 1, 7}, {"G", 1, 5}, {"Ğ", 1, 8}, {"H", 1, 5}, {"I", 4, 2}, {"İ", 7, 1},
		{"J", 1, 10}, {"K", 7, 1}, {"L", 7, 1}, {"M", 4, 2}, {"N", 5, 1}, {"O", 3, 2},
		{"Ö", 1, 7}, {"P", 1, 5}, {"R", 6, 1}, {"S", 3, 2}, {"Ş", 2, 4}, {"T", 5, 1},
		{"U", 3, 2}, {"Ü", 2, 3}, {"V", 1, 7}, {"Y", 2, 3}, {"Z", 2, 4},
	}},
}
