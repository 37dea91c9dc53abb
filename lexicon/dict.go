// Package lexicon loads pronunciation dictionaries and compiles them into
// lexicon transducers from phones to words.
package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// Entry represents a single pronunciation for a word.
type Entry struct {
	Word    string
	Reading string // kana reading, may be empty
	Phones  []string
}

// Dictionary holds word-to-pronunciation mappings.
type Dictionary struct {
	Entries map[string][]Entry // word -> list of alternative pronunciations
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		Entries: make(map[string][]Entry),
	}
}

// Add adds a pronunciation entry to the dictionary.
func (d *Dictionary) Add(word, reading string, phones []string) {
	d.Entries[word] = append(d.Entries[word], Entry{
		Word:    word,
		Reading: reading,
		Phones:  phones,
	})
}

// Load reads a pronunciation dictionary. Each line is one of
//
//	word<TAB>reading<TAB>phone1 phone2 ...
//	word<TAB>reading        (phones derived from the katakana reading)
//	word phone1 phone2 ...
//
// Blank lines and lines starting with '#' are skipped.
func Load(r io.Reader) (*Dictionary, error) {
	d := NewDictionary()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var word, reading string
		var phones []string
		if parts := strings.SplitN(line, "\t", 3); len(parts) > 1 {
			word, reading = parts[0], strings.TrimSpace(parts[1])
			if len(parts) == 3 {
				phones = strings.Fields(parts[2])
			}
			if len(phones) == 0 {
				var err error
				if phones, err = KanaPhones(reading); err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
			}
		} else {
			fields := strings.Fields(line)
			word, phones = fields[0], fields[1:]
		}
		if len(phones) == 0 {
			return nil, fmt.Errorf("line %d: no pronunciation for %q", lineNum, word)
		}

		d.Add(word, reading, phones)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return d, nil
}

// LoadFile is a convenience wrapper that opens a file path.
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Lookup returns all pronunciation variants for a word.
func (d *Dictionary) Lookup(word string) []Entry {
	return d.Entries[word]
}

// Words returns all words in the dictionary in lexical order.
func (d *Dictionary) Words() []string {
	words := make([]string, 0, len(d.Entries))
	for w := range d.Entries {
		words = append(words, w)
	}
	slices.Sort(words)
	return words
}
