// Package ledger remembers which anchors every page has published, so a
// rebuild can report permalinks that stopped resolving.
package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/ziadkadry99/doctoc/internal/anchor"
	"github.com/ziadkadry99/doctoc/internal/db"
)

// Anchor is one recorded identifier.
type Anchor struct {
	Page        string
	ID          string
	Level       int
	Text        string
	FirstBuild  string
	LastBuild   string
	Occurrences int
	Live        bool
}

// Diff compares a page's anchors with its previous recording.
type Diff struct {
	Page       string
	Added      []string
	Removed    []string // Published before, gone now: broken permalinks.
	Duplicates []string
}

// Empty reports whether nothing changed and nothing collides.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Duplicates) == 0
}

// Store provides access to the anchor ledger.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// BeginBuild registers a new build and returns its id.
func (s *Store) BeginBuild(ctx context.Context) (string, error) {
	id := uuid.New().String()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO builds (id) VALUES (?)`, id); err != nil {
		return "", fmt.Errorf("inserting build: %w", err)
	}
	return id, nil
}

// FinishBuild stores the page count of a build.
func (s *Store) FinishBuild(ctx context.Context, buildID string, pages int) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE builds SET pages = ? WHERE id = ?`, pages, buildID); err != nil {
		return fmt.Errorf("updating build %s: %w", buildID, err)
	}
	return nil
}

// Record stores the anchors a page publishes in this build and returns how
// they differ from the page's previous recording. Duplicates are stored once
// with their occurrence count; they are never renamed.
func (s *Store) Record(ctx context.Context, buildID, page string, headings []*anchor.Heading) (Diff, error) {
	diff := Diff{Page: page}

	type current struct {
		level int
		text  string
		count int
	}
	now := make(map[string]*current)
	var order []string
	for _, h := range headings {
		c, ok := now[h.ID]
		if !ok {
			c = &current{level: int(h.Level), text: h.Text}
			now[h.ID] = c
			order = append(order, h.ID)
		}
		c.count++
		if c.count == 2 {
			diff.Duplicates = append(diff.Duplicates, h.ID)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return diff, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT anchor_id FROM anchors WHERE page = ? AND live = 1`, page)
	if err != nil {
		return diff, fmt.Errorf("querying live anchors: %w", err)
	}
	prev := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return diff, fmt.Errorf("scanning anchor: %w", err)
		}
		prev[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return diff, fmt.Errorf("iterating anchors: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE anchors SET live = 0 WHERE page = ?`, page); err != nil {
		return diff, fmt.Errorf("retiring anchors: %w", err)
	}

	for _, id := range order {
		c := now[id]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO anchors (page, anchor_id, level, text, first_build, last_build, occurrences, live)
			VALUES (?, ?, ?, ?, ?, ?, ?, 1)
			ON CONFLICT(page, anchor_id) DO UPDATE SET
				level = excluded.level,
				text = excluded.text,
				last_build = excluded.last_build,
				occurrences = excluded.occurrences,
				live = 1`,
			page, id, c.level, c.text, buildID, buildID, c.count)
		if err != nil {
			return diff, fmt.Errorf("upserting anchor %q: %w", id, err)
		}
		if !prev[id] {
			diff.Added = append(diff.Added, id)
		}
	}

	for id := range prev {
		if _, ok := now[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}
	sort.Strings(diff.Removed)

	if err := tx.Commit(); err != nil {
		return diff, fmt.Errorf("committing anchors: %w", err)
	}
	return diff, nil
}

// RetireMissing marks the live anchors of every page outside pages as gone and
// returns one Diff per retired page, sorted by page. pages is the set of pages
// present in the source tree of this build, including ones that failed to
// render.
func (s *Store) RetireMissing(ctx context.Context, buildID string, pages []string) ([]Diff, error) {
	present := make(map[string]bool, len(pages))
	for _, p := range pages {
		present[p] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT page, anchor_id FROM anchors WHERE live = 1 ORDER BY page, anchor_id`)
	if err != nil {
		return nil, fmt.Errorf("querying live anchors: %w", err)
	}
	var diffs []Diff
	for rows.Next() {
		var page, id string
		if err := rows.Scan(&page, &id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning anchor: %w", err)
		}
		if present[page] {
			continue
		}
		if len(diffs) == 0 || diffs[len(diffs)-1].Page != page {
			diffs = append(diffs, Diff{Page: page})
		}
		d := &diffs[len(diffs)-1]
		d.Removed = append(d.Removed, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating anchors: %w", err)
	}

	for _, d := range diffs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE anchors SET live = 0, last_build = ? WHERE page = ? AND live = 1`,
			buildID, d.Page); err != nil {
			return nil, fmt.Errorf("retiring anchors of %s: %w", d.Page, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing retired anchors: %w", err)
	}
	return diffs, nil
}

// Anchors lists every anchor ever recorded for page, live ones first.
func (s *Store) Anchors(ctx context.Context, page string) ([]Anchor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT page, anchor_id, level, text, first_build, last_build, occurrences, live
		FROM anchors WHERE page = ?
		ORDER BY live DESC, anchor_id`, page)
	if err != nil {
		return nil, fmt.Errorf("querying anchors: %w", err)
	}
	defer rows.Close()

	var out []Anchor
	for rows.Next() {
		var a Anchor
		var live int
		if err := rows.Scan(&a.Page, &a.ID, &a.Level, &a.Text, &a.FirstBuild, &a.LastBuild, &a.Occurrences, &live); err != nil {
			return nil, fmt.Errorf("scanning anchor: %w", err)
		}
		a.Live = live == 1
		out = append(out, a)
	}
	return out, rows.Err()
}

// Resolves reports whether id is currently published on page.
func (s *Store) Resolves(ctx context.Context, page, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM anchors WHERE page = ? AND anchor_id = ? AND live = 1`, page, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying anchor: %w", err)
	}
	return n > 0, nil
}
