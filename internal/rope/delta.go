package rope

// Delta is a single interval replacement: the bytes in [Start,End) are
// replaced by Text. This mirrors the LSP TextDocumentContentChangeEvent
// model (§6) at the byte-range level; the worksheet layer is responsible
// for translating LSP UTF-16 positions into byte offsets before building
// a Delta.
type Delta struct {
	Start int
	End   int
	Text  string
}

// NewFullReplace builds a delta that inserts text at offset 0, which
// amounts to a "replace everything" edit only on an empty rope.
func NewFullReplace(text string) Delta {
	return Delta{Start: 0, End: 0, Text: text}
}

// Apply returns a new rope with the delta applied. The original rope is
// untouched and remains valid: unaffected leaves are shared between the
// two trees. The result is not rebalanced, and leaves left smaller than
// MinLeaf by the split are only merged with a neighbor when the two fit
// in MaxLeaf, so repeated edits can deepen the tree.
func (r Rope) Apply(d Delta) Rope {
	start, end := d.Start, d.End
	if start < 0 {
		start = 0
	}
	if end > r.Len() {
		end = r.Len()
	}
	if end < start {
		end = start
	}
	prefix, rest := split(r.root, start)
	_, suffix := split(rest, end-start)
	middle := New(d.Text).root
	return Rope{root: concat(concat(prefix, middle), suffix)}
}
