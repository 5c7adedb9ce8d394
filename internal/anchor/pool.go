package anchor

// Pool tracks the identifiers issued for one page. It only detects
// duplicates; it never renames, since a rename would move a permalink the
// next time an unrelated heading changes.
type Pool struct {
	seen  map[string]int
	order []string
	dups  []string
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{seen: make(map[string]int)}
}

// Issue records id and reports whether it had already been issued.
func (p *Pool) Issue(id string) bool {
	n := p.seen[id]
	p.seen[id] = n + 1
	if n == 0 {
		p.order = append(p.order, id)
		return false
	}
	if n == 1 {
		p.dups = append(p.dups, id)
	}
	return true
}

// Count returns how many times id was issued.
func (p *Pool) Count(id string) int {
	return p.seen[id]
}

// Len returns the number of distinct identifiers.
func (p *Pool) Len() int {
	return len(p.order)
}

// Duplicates returns every identifier issued more than once, in the order the
// collision was first seen.
func (p *Pool) Duplicates() []string {
	out := make([]string, len(p.dups))
	copy(out, p.dups)
	return out
}
