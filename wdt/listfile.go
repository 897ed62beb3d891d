package wdt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// NormalizePath canonicalizes an asset path for corpus lookups: path
// separators become forward slashes and the result is lower-cased. The
// formats store paths with backslashes and inconsistent casing, while
// community listfiles use forward slashes and lowercase.
func NormalizePath(p string) string {
	return strings.ToLower(strings.ReplaceAll(p, `\`, "/"))
}

// Corpus is a set of known asset paths, keyed by normalized path.
type Corpus struct {
	paths map[string]struct{}
}

// NewCorpus builds a corpus from asset paths in any separator or casing
// convention.
func NewCorpus(paths ...string) *Corpus {
	c := &Corpus{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		c.Add(p)
	}
	return c
}

// Add inserts one path.
func (c *Corpus) Add(p string) {
	c.paths[NormalizePath(p)] = struct{}{}
}

// Contains reports whether the normalized path is in the corpus.
func (c *Corpus) Contains(normalized string) bool {
	_, ok := c.paths[normalized]
	return ok
}

// Len returns the number of paths in the corpus.
func (c *Corpus) Len() int { return len(c.paths) }

// gzipMagic is the two-byte member header of RFC 1952 streams.
var gzipMagic = []byte{0x1f, 0x8b}

// ReadListfile parses a community listfile from r into a corpus. Both
// plain name-per-line files and the "id;path" CSV convention are
// accepted; gzip-compressed input is detected by its magic bytes.
func ReadListfile(r io.Reader) (*Corpus, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err == nil && bytes.Equal(head, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening compressed listfile: %w", err)
		}
		defer zr.Close()
		return readListfileLines(zr)
	}
	return readListfileLines(br)
}

// LoadListfile reads a listfile from disk.
func LoadListfile(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening listfile: %w", err)
	}
	defer f.Close()
	c, err := ReadListfile(f)
	if err != nil {
		return nil, fmt.Errorf("reading listfile %s: %w", path, err)
	}
	return c, nil
}

func readListfileLines(r io.Reader) (*Corpus, error) {
	c := NewCorpus()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		// "fileDataID;path" rows keep only the path column.
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[i+1:]
		}
		c.Add(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning listfile: %w", err)
	}
	return c, nil
}
