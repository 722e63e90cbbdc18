package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// AutoParser picks JSON-lines when the first non-blank byte is '{' and CSV otherwise.
type AutoParser struct {
	csv   *CSVParser
	jsonl *JSONLParser
}

func NewAutoParser(opts Options) *AutoParser {
	return &AutoParser{
		csv:   NewCSVParser(opts),
		jsonl: NewJSONLParser(opts),
	}
}

func (p *AutoParser) Parse(r io.Reader, source string) (Batch, error) {
	br := bufio.NewReader(r)
	for {
		b, err := br.Peek(1)
		if err != nil {
			if err == io.EOF {
				return Batch{}, nil
			}
			return Batch{}, fmt.Errorf("%s: %w", source, err)
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.ReadByte()
			continue
		case '{':
			return p.jsonl.Parse(br, source)
		}
		return p.csv.Parse(br, source)
	}
}

// New returns the parser for a format name: auto, csv or jsonl.
func New(format string, opts Options) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto":
		return NewAutoParser(opts), nil
	case "csv":
		return NewCSVParser(opts), nil
	case "jsonl", "json", "ndjson":
		return NewJSONLParser(opts), nil
	}
	return nil, fmt.Errorf("unknown input format %q", format)
}

// LoadFiles parses each path in order and concatenates the results.
// Files ending in .gz or .zst are decompressed transparently.
func LoadFiles(p Parser, paths []string) (Batch, error) {
	var all Batch
	for _, path := range paths {
		b, err := loadFile(p, path)
		if err != nil {
			return Batch{}, err
		}
		all.append(b)
	}
	return all, nil
}

func loadFile(p Parser, path string) (Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return Batch{}, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	r, closeFn, err := decompress(f, path)
	if err != nil {
		return Batch{}, fmt.Errorf("%s: %w", path, err)
	}
	defer closeFn()

	return p.Parse(r, path)
}

// decompress wraps r according to the file extension.
func decompress(r io.Reader, path string) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	default:
		return r, func() {}, nil
	}
}
