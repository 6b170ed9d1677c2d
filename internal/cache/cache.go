// Package cache implements Garden's persistent evaluation cache (spec
// §3, §4.7): a map from node-id to {result, timestamp}, plus the two
// transient per-cycle auxiliaries, "changed" and "nodes".
//
// Grounded on the teacher's cmd/agent.go JSON-sidecar load-or-reset
// pattern (saveMountMetadata/MountMetadata) for the on-disk shape, and on
// internal/graph/graph.go's nodeIntID/intToNodeID int-interning scheme,
// reused here to back the "changed" set with a roaring bitmap instead of
// a map[string]struct{}.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/garden/api"
	"github.com/agentic-research/garden/internal/graph"
)

// Entry is one cached result: the outcome of evaluating a node, and when
// that result was last written.
type Entry struct {
	Result    api.Outcome
	Timestamp time.Time
}

// Cache is the persistent node-id -> Entry map plus the transient
// "changed" set and "nodes" lookup table the driver populates each cycle.
// Not safe for concurrent use — the engine's concurrency model (spec §5)
// gives the driver exclusive access to one Cache at a time.
type Cache struct {
	entries map[graph.ID]Entry

	// Interning table: stable across cycles, used to back `changed` with
	// a roaring.Bitmap the way the teacher interns Node.ID strings into
	// uint32s for its fileToNodes bitmap index.
	idToInt   map[graph.ID]uint32
	intToID   []graph.ID
	changed   *roaring.Bitmap
	nodes     map[graph.ID]*graph.Node
}

// New returns an empty cache, as used on a cold start with no prior
// sidecar file.
func New() *Cache {
	return &Cache{
		entries: make(map[graph.ID]Entry),
		idToInt: make(map[graph.ID]uint32),
		changed: roaring.New(),
		nodes:   make(map[graph.ID]*graph.Node),
	}
}

func (c *Cache) intern(id graph.ID) uint32 {
	if i, ok := c.idToInt[id]; ok {
		return i
	}
	i := uint32(len(c.intToID))
	c.idToInt[id] = i
	c.intToID = append(c.intToID, id)
	return i
}

// BeginCycle resets the two transient auxiliaries at the start of a new
// evaluation cycle (spec §4.6): the changed set is cleared, and the
// nodes lookup table is emptied so the driver can repopulate it from the
// current cycle's roots only (spec invariant 5).
func (c *Cache) BeginCycle() {
	c.changed.Clear()
	c.nodes = make(map[graph.ID]*graph.Node)
}

// RegisterNode records a node so the reporter can look it up by id later
// in this cycle (spec invariant 4).
func (c *Cache) RegisterNode(n *graph.Node) {
	c.nodes[n.ID] = n
	for _, child := range n.Children {
		c.RegisterNode(child)
	}
}

// NodeByID returns the node registered this cycle under id, if any.
func (c *Cache) NodeByID(id graph.ID) (*graph.Node, bool) {
	n, ok := c.nodes[id]
	return n, ok
}

// Get returns the cached outcome for id from a prior write, if present.
// It does not consult `changed`.
func (c *Cache) Get(id graph.ID) (api.Outcome, bool) {
	e, ok := c.entries[id]
	return e.Result, ok
}

// Put writes outcome as the result for id. If outcome differs from (or
// there was no) prior entry for id, id is added to `changed` (spec §4.6,
// invariant 3). The latest write always wins.
func (c *Cache) Put(id graph.ID, outcome api.Outcome, now time.Time) {
	prev, had := c.entries[id]
	if !had || !prev.Result.Equal(outcome) {
		c.changed.Add(c.intern(id))
	}
	c.entries[id] = Entry{Result: outcome, Timestamp: now}
}

// IsChanged reports whether id was (re)written with a new result this
// cycle.
func (c *Cache) IsChanged(id graph.ID) bool {
	i, ok := c.idToInt[id]
	if !ok {
		return false
	}
	return c.changed.Contains(i)
}

// ChangedCount returns how many ids changed this cycle, for the "no
// changes" notice (spec §4.6).
func (c *Cache) ChangedCount() int {
	return int(c.changed.GetCardinality())
}

// --- persistence (spec §4.7) ---

type wireEntry struct {
	Result    api.Outcome `json:"result"`
	Timestamp time.Time   `json:"timestamp"`
}

// Encode serialises the persistent entries (never the transient
// auxiliaries) as a JSON object mapping hex node-id to {result,
// timestamp}, per spec §6.
func (c *Cache) Encode() ([]byte, error) {
	wire := make(map[string]wireEntry, len(c.entries))
	for id, e := range c.entries {
		wire[id.Hex()] = wireEntry{Result: e.Result, Timestamp: e.Timestamp.UTC()}
	}
	return json.MarshalIndent(wire, "", "  ")
}

// Decode parses a cache file's bytes. A missing, empty, or malformed file
// must not be fatal (spec §4.7); Decode returns an error in those cases so
// the caller can log a warning and fall back to cache.New(), per the
// "load tolerates ... resets silently (with a warning emitted
// externally)" contract.
func Decode(data []byte) (*Cache, error) {
	c := New()
	if len(data) == 0 {
		return c, fmt.Errorf("cache: empty file")
	}
	var wire map[string]wireEntry
	if err := json.Unmarshal(data, &wire); err != nil {
		return c, fmt.Errorf("cache: malformed file: %w", err)
	}
	for hexID, we := range wire {
		id, err := idFromHex(hexID)
		if err != nil {
			return New(), fmt.Errorf("cache: malformed node id %q: %w", hexID, err)
		}
		c.entries[id] = Entry{Result: we.Result, Timestamp: we.Timestamp}
	}
	return c, nil
}

func idFromHex(s string) (graph.ID, error) {
	var id graph.ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return graph.ID{}, err
	}
	if len(b) != len(id) {
		return graph.ID{}, fmt.Errorf("want %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}
