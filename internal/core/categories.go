package core

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// DefaultCategories is offered by the add form when no seed file exists.
var DefaultCategories = []string{
	"Food", "Transport", "Shopping", "Bills", "Entertainment", "Health", FallbackCategory,
}

// LoadCategories reads the category taxonomy from base/seed_categories.txt.
// Blank lines and lines starting with '#' are ignored; duplicates are dropped
// keeping the first occurrence. Missing or empty files yield DefaultCategories.
func LoadCategories(base string) []string {
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		return append([]string(nil), DefaultCategories...)
	}
	return cats
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
