// Package wordlist loads word lists from files and the built-in pools.
package wordlist

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/verte-zerg/typespeed/internal/model"
)

//go:embed words/*.txt
var builtin embed.FS

// Builtin returns the embedded word pool for a difficulty.
func Builtin(d model.Difficulty) ([]string, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("unknown difficulty %q", d)
	}
	f, err := builtin.Open("words/" + string(d) + ".txt")
	if err != nil {
		return nil, fmt.Errorf("failed to open built-in words: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close for embedded file.
			_ = cerr
		}
	}()
	return readWords(f)
}

// LoadWords reads one word per line from the provided file path.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()
	return readWords(file)
}

// Load returns the words for a difficulty: the built-in pool when path is
// empty, otherwise the file filtered for the difficulty.
func Load(path string, d model.Difficulty) ([]string, error) {
	if path == "" {
		return Builtin(d)
	}
	words, err := LoadWords(path)
	if err != nil {
		return nil, err
	}
	filtered := Filter(words, FilterForDifficulty(d))
	if len(filtered) == 0 {
		return nil, fmt.Errorf("word list %s has no %s words", path, d)
	}
	return filtered, nil
}

func readWords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}
