// Package lines compares files line by line.
package lines

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Set reads r and returns its lines with surrounding whitespace removed.
func Set(r io.Reader) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		set[strings.TrimSpace(scanner.Text())] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// Intersect returns the sorted lines present in both sets.
func Intersect(a, b map[string]struct{}) []string {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make([]string, 0, len(a))
	for line := range a {
		if _, ok := b[line]; ok {
			out = append(out, line)
		}
	}
	sort.Strings(out)
	return out
}

// IntersectFiles returns the sorted lines present in both files.
func IntersectFiles(first, second string) ([]string, error) {
	a, err := readSet(first)
	if err != nil {
		return nil, err
	}
	b, err := readSet(second)
	if err != nil {
		return nil, err
	}
	return Intersect(a, b), nil
}

func readSet(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set, err := Set(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return set, nil
}
