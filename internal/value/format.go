package value

import (
	"fmt"
	"strings"
)

// writeArrayInspect and writeObjectInspect implement the compact vs.
// pretty distinction named in §4.1 but left unspecified exactly; the
// rule used here (pretty puts each element on its own line, indented
// two spaces per nesting level; compact keeps one line, with ", "
// between elements and ": " after object keys) follows original_source/asteria/value.cpp's
// compact/pretty split (see SPEC_FULL.md Supplemented Features).

func writeArrayInspect(sb *strings.Builder, a *ArrayData, pretty bool, depth int) {
	if a.Len() == 0 {
		sb.WriteString("[]")
		return
	}
	sb.WriteByte('[')
	for i := 0; i < a.Len(); i++ {
		if i > 0 {
			sb.WriteByte(',')
			if !pretty {
				sb.WriteByte(' ')
			}
		}
		if pretty {
			sb.WriteByte('\n')
			writeIndent(sb, depth+1)
		}
		e := a.Get(i)
		e.writeInspect(sb, pretty, depth+1)
	}
	if pretty {
		sb.WriteByte('\n')
		writeIndent(sb, depth)
	}
	sb.WriteByte(']')
}

func writeObjectInspect(sb *strings.Builder, o *ObjectData, pretty bool, depth int) {
	if len(o.Keys) == 0 {
		sb.WriteString("{}")
		return
	}
	sb.WriteByte('{')
	for i, k := range o.Keys {
		if i > 0 {
			sb.WriteByte(',')
			if !pretty {
				sb.WriteByte(' ')
			}
		}
		if pretty {
			sb.WriteByte('\n')
			writeIndent(sb, depth+1)
		}
		sb.WriteString(fmt.Sprintf("%q: ", k))
		v, _ := o.Get(k)
		v.writeInspect(sb, pretty, depth+1)
	}
	if pretty {
		sb.WriteByte('\n')
		writeIndent(sb, depth)
	}
	sb.WriteByte('}')
}

func writeIndent(sb *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		sb.WriteString("  ")
	}
}
