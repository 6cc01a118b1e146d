package lockstore

import (
	"bytes"
	"strings"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

// encode renders a set of locks in the line-oriented text format spec
// §6 defines for persisted records: one record per line,
// "name<TAB>mode<TAB>value\n", with an empty value represented as the
// bare trailing tab before the newline.
func encode(locks []domain.Lock) []byte {
	var buf bytes.Buffer
	for _, l := range locks {
		buf.WriteString(l.Name)
		buf.WriteByte('\t')
		buf.WriteString(l.Mode.String())
		buf.WriteByte('\t')
		buf.WriteString(l.Value)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// decode parses the record format emitted by encode. Malformed lines
// are skipped rather than failing the whole record, consistent with
// the tolerant-parse style used elsewhere in this codebase for
// line-oriented on-disk formats.
func decode(raw []byte) map[string]domain.Lock {
	out := make(map[string]domain.Lock)
	for _, line := range strings.Split(string(raw), "\n") {
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			continue
		}
		mode, ok := domain.ModeFromString(fields[1])
		if !ok {
			continue
		}
		out[fields[0]] = domain.Lock{Name: fields[0], Mode: mode, Value: fields[2]}
	}
	return out
}
