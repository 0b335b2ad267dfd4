package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/pkg/value"
)

// DebugEncoder renders an event as the multi-line {fields, tags}
// pretty-print from spec §6.6. Human-readable only; not a parseable wire
// format.
type DebugEncoder struct{}

func NewDebugEncoder() *DebugEncoder { return &DebugEncoder{} }

func (DebugEncoder) Encode(ev *event.Event) []byte {
	var b strings.Builder
	b.WriteString("event:\n")
	writeSortedMap(&b, "  fields", ev.Fields())
	writeSortedMap(&b, "  tags", ev.Tags())
	return []byte(b.String())
}

func writeSortedMap(b *strings.Builder, label string, m map[string]value.Value) {
	fmt.Fprintf(b, "%s:\n", label)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s  %s: %s\n", label, k, m[k].GoString())
	}
}
