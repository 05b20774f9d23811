// Package supersede tracks which government orders have been replaced by
// newer ones, built lazily from the relations recorded on GO chunks.
package supersede

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/config"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/planner"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/retrieval"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/vector"
)

const scrollPageSize = 256

// Stats summarizes the built supersession graph.
type Stats struct {
	GONumbers     int
	Arcs          int
	DroppedArcs   int
	CyclesBroken  int
	Unresolved    int
	SelfLoops     int
	ScanAvailable bool
}

// Manager owns the process-wide supersession graph. It is built once on
// first use and read-only afterwards.
type Manager struct {
	store      vector.Provider
	collection string
	cfg        config.SupersessionConfig

	mu           sync.Mutex
	built        bool
	supersededBy map[string]string // old doc_id -> new doc_id
	stats        Stats
}

// NewManager creates a manager over the GO collection.
func NewManager(store vector.Provider, collection string, cfg config.SupersessionConfig) *Manager {
	return &Manager{
		store:      store,
		collection: collection,
		cfg:        cfg,
	}
}

var goNumberDigits = regexp.MustCompile(`\d+`)

// normalizeGONumber reduces any GO reference to its bare number with leading
// zeros stripped, so "G.O.MS.No.026" and "GO 26" resolve identically.
func normalizeGONumber(s string) string {
	m := goNumberDigits.FindString(s)
	if m == "" {
		return ""
	}
	trimmed := strings.TrimLeft(m, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

type arc struct {
	newDocID string
	target   string // superseded GO number text, unresolved
	order    int    // scan order; later arcs lose cycle breaks
}

// ensureBuilt scans the GO collection once. A store that cannot scroll
// leaves the graph empty; every lookup then reports "not superseded".
func (m *Manager) ensureBuilt(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.built {
		return
	}
	m.built = true
	m.supersededBy = make(map[string]string)
	m.stats.ScanAvailable = true

	goNumbers := make(map[string]string) // normalized number -> doc_id
	var arcs []arc

	offset := ""
	order := 0
	for {
		results, next, err := m.store.Scroll(ctx, m.collection, scrollPageSize, offset)
		if err != nil {
			if errors.Is(err, vector.ErrScrollUnsupported) {
				slog.Warn("Vector store cannot scroll, supersession tracking disabled")
				m.stats.ScanAvailable = false
			} else {
				slog.Warn("Supersession scan failed", "error", err)
			}
			return
		}
		for _, res := range results {
			docID, _ := res.Metadata["doc_id"].(string)
			if docID == "" {
				docID = res.ID
			}
			if num := normalizeGONumber(metaString(res.Metadata, "go_number")); num != "" {
				if _, exists := goNumbers[num]; !exists {
					goNumbers[num] = docID
				}
			}
			for _, target := range supersededTargets(res.Metadata) {
				arcs = append(arcs, arc{newDocID: docID, target: target, order: order})
				order++
			}
		}
		if next == "" {
			break
		}
		offset = next
	}

	m.stats.GONumbers = len(goNumbers)
	m.resolve(goNumbers, arcs)
}

// resolve turns textual arcs into doc-id pairs, discarding self-loops,
// unresolved targets, and cycle-closing arcs (later arc loses).
func (m *Manager) resolve(goNumbers map[string]string, arcs []arc) {
	sort.Slice(arcs, func(i, j int) bool { return arcs[i].order < arcs[j].order })

	for _, a := range arcs {
		num := normalizeGONumber(a.target)
		oldDocID, ok := goNumbers[num]
		if num == "" || !ok {
			m.stats.Unresolved++
			continue
		}
		if oldDocID == a.newDocID {
			m.stats.SelfLoops++
			continue
		}
		if _, taken := m.supersededBy[oldDocID]; taken {
			m.stats.DroppedArcs++
			continue
		}
		if m.createsCycle(oldDocID, a.newDocID) {
			slog.Warn("Supersession cycle detected, discarding arc",
				"old_doc", oldDocID, "new_doc", a.newDocID)
			m.stats.CyclesBroken++
			continue
		}
		m.supersededBy[oldDocID] = a.newDocID
		m.stats.Arcs++
	}
}

// createsCycle reports whether old->new would close a loop in the existing
// chain of supersessions.
func (m *Manager) createsCycle(oldDocID, newDocID string) bool {
	seen := map[string]bool{oldDocID: true}
	cur := newDocID
	for {
		if seen[cur] {
			return true
		}
		seen[cur] = true
		next, ok := m.supersededBy[cur]
		if !ok {
			return false
		}
		cur = next
	}
}

// IsSuperseded reports whether a newer document replaces docID.
func (m *Manager) IsSuperseded(ctx context.Context, docID string) bool {
	m.ensureBuilt(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.supersededBy[docID]
	return ok
}

// SupersededBy returns the replacing doc_id, or "" when docID is current.
func (m *Manager) SupersededBy(ctx context.Context, docID string) string {
	m.ensureBuilt(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.supersededBy[docID]
}

// Stats returns graph statistics, building the graph if needed.
func (m *Manager) Stats(ctx context.Context) Stats {
	m.ensureBuilt(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Apply filters superseded chunks out of the candidate list according to the
// configured policy. DeepThink keeps them annotated so historical analysis
// stays possible.
func (m *Manager) Apply(ctx context.Context, cands []retrieval.Candidate, mode planner.Mode) []retrieval.Candidate {
	m.ensureBuilt(ctx)

	out := cands[:0]
	for _, c := range cands {
		newer := m.SupersededBy(ctx, c.DocID)
		if newer == "" {
			out = append(out, c)
			continue
		}
		c.Superseded = true
		c.SupersededBy = newer

		switch {
		case mode == planner.ModeDeepThink:
			out = append(out, c)
		case m.cfg.Policy == "downrank":
			factor := float64(m.cfg.DownrankFactor)
			c.Score *= factor
			c.RerankScore *= factor
			out = append(out, c)
		default:
			// drop
		}
	}
	return out
}

func metaString(metadata map[string]any, key string) string {
	v, ok := metadata[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// supersededTargets extracts the supersedes targets from a chunk's relations
// metadata. Two shapes are accepted: a list of maps with relation_type and
// target keys, or a list of "supersedes:<target>" strings.
func supersededTargets(metadata map[string]any) []string {
	raw, ok := metadata["relations"]
	if !ok || raw == nil {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	var targets []string
	for _, item := range list {
		switch rel := item.(type) {
		case map[string]any:
			relType, _ := rel["relation_type"].(string)
			if relType == "" {
				relType, _ = rel["type"].(string)
			}
			if relType != "supersedes" {
				continue
			}
			if target, _ := rel["target"].(string); target != "" {
				targets = append(targets, target)
			}
		case string:
			if rest, found := strings.CutPrefix(rel, "supersedes:"); found && rest != "" {
				targets = append(targets, rest)
			}
		}
	}
	return targets
}
