package parser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"
)

// JSONLParser reads one JSON object per line using the same field names as
// the CSV header. Numeric fields may be JSON numbers or strings.
type JSONLParser struct {
	opts Options
	pool fastjson.ParserPool
}

func NewJSONLParser(opts Options) *JSONLParser { return &JSONLParser{opts: opts} }

func (p *JSONLParser) Parse(r io.Reader, source string) (Batch, error) {
	var batch Batch

	fp := p.pool.Get()
	defer p.pool.Put(fp)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		v, err := fp.Parse(text)
		if err != nil {
			batch.Rejected = append(batch.Rejected, &RowError{Source: source, Line: line, Err: err})
			continue
		}
		obj, err := v.Object()
		if err != nil {
			batch.Rejected = append(batch.Rejected, &RowError{Source: source, Line: line, Err: err})
			continue
		}

		fields := make(map[string]string, obj.Len())
		obj.Visit(func(key []byte, val *fastjson.Value) {
			fields[normalizeKey(string(key))] = jsonScalar(val)
		})

		get := func(col string) (string, bool) {
			s, ok := fields[col]
			return s, ok
		}

		rec, rowErr := buildRecord(get, p.opts)
		if rowErr != nil {
			rowErr.Source, rowErr.Line = source, line
			batch.Rejected = append(batch.Rejected, rowErr)
			continue
		}
		rec.Source, rec.Line = source, line
		batch.Records = append(batch.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return batch, fmt.Errorf("%s: %w", source, err)
	}

	return batch, nil
}

// jsonScalar renders a JSON value as the string a CSV cell would hold.
// null becomes "", objects and arrays keep their JSON text.
func jsonScalar(v *fastjson.Value) string {
	switch v.Type() {
	case fastjson.TypeNull:
		return ""
	case fastjson.TypeString:
		return strings.TrimSpace(string(v.GetStringBytes()))
	case fastjson.TypeNumber:
		return strconv.FormatFloat(v.GetFloat64(), 'f', -1, 64)
	case fastjson.TypeTrue:
		return "true"
	case fastjson.TypeFalse:
		return "false"
	default:
		return v.String()
	}
}
