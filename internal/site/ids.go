package site

import (
	"strconv"

	"github.com/gosimple/slug"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
)

// slugIDs assigns the heading ids the rendered markdown carries before any TOC
// anchor derivation happens. Ids are slugs, unique within one page: repeats
// get -1, -2, ... appended.
type slugIDs struct {
	used map[string]bool
}

var _ parser.IDs = (*slugIDs)(nil)

func newSlugIDs() *slugIDs {
	return &slugIDs{used: make(map[string]bool)}
}

// Generate implements parser.IDs.
func (s *slugIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	base := slug.Make(string(value))
	if base == "" {
		base = "section"
	}
	id := base
	for i := 1; s.used[id]; i++ {
		id = base + "-" + strconv.Itoa(i)
	}
	s.used[id] = true
	return []byte(id)
}

// Put implements parser.IDs.
func (s *slugIDs) Put(value []byte) {
	s.used[string(value)] = true
}
