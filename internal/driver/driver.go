// Package driver owns the evaluate-sequence loop (spec §4.5): parse,
// lower, evaluate each root against the one long-lived root Environment,
// bind root-level definitions back into that Environment, and hand the
// cycle's outcomes to the change-detection reporter (spec §4.6).
//
// Grounded on the teacher's internal/ingest/engine.go "Run one ingest
// cycle over a batch" loop and cmd/agent.go's poll-and-reconcile cycle,
// generalised from "reconcile a directory tree" to "re-evaluate a source
// file".
package driver

import (
	"fmt"
	"sort"
	"time"

	"github.com/agentic-research/garden/api"
	"github.com/agentic-research/garden/internal/ast"
	"github.com/agentic-research/garden/internal/cache"
	"github.com/agentic-research/garden/internal/eval"
	"github.com/agentic-research/garden/internal/graph"
	"github.com/agentic-research/garden/internal/scope"
)

// Driver holds the state that persists across cycles: the root
// environment (name -> defining-node-id bindings) and the cache the
// evaluator memoises through. Both live for the process's lifetime,
// surviving many evaluate-sequence cycles (spec §4.5, invariant 1).
type Driver struct {
	Env   *scope.Environment
	Cache *cache.Cache
	Eval  *eval.Evaluator
}

// New returns a Driver starting from a fresh root environment and the
// given cache (New() for cold start, or cache.Decode's result after a
// warm restore).
func New(c *cache.Cache) *Driver {
	return &Driver{
		Env:   scope.NewRoot(),
		Cache: c,
		Eval:  eval.New(c),
	}
}

// Record is one reported change: a root (or sub-root, but reporting is
// root-scoped per spec §4.6) whose result differs from its prior cycle.
type Record struct {
	Line     int
	Snippet  string
	IDPrefix string
	Outcome  api.Outcome
}

// Report is the result of one evaluate-sequence cycle.
type Report struct {
	Changed []Record // sorted by ascending Line
}

// RunCycle parses src, lowers it, evaluates every root against d.Env in
// order, binds root-level def/let-statement successes back into d.Env,
// and returns the change report. A parse error aborts the entire cycle
// (spec §7: "Parse errors abort the entire cycle — there is nothing to
// evaluate").
func (d *Driver) RunCycle(src string) (*Report, *api.Error) {
	roots, perr := ast.Parse(src)
	if perr != nil {
		return nil, perr
	}

	d.Cache.BeginCycle()
	nodes := graph.LowerAll(roots)
	for _, n := range nodes {
		d.Cache.RegisterNode(n)
	}

	for _, n := range nodes {
		out := d.Eval.Eval(n, d.Env)
		if out.Err == nil && (n.Kind == graph.KindDefinition || n.Kind == graph.KindLetStatement) {
			name := n.Children[1].Name()
			d.Env.Bind(name, n.Children[2].ID)
		}
	}

	return d.buildReport(nodes), nil
}

// buildReport walks every cycle root depth-first, visiting each id at
// most once (spec invariant 5 — the traversal is for reachability/dedup
// only), and emits a Record for each *root* whose id was marked changed
// this cycle. Sub-expressions of a root (its literal arguments, nested
// calls) are where a root's change actually originates, but they are
// reported only through the root that contains them, one record per
// changed root (spec §4.6, §8 scenario 1: three roots, three records —
// not one per descendant node).
func (d *Driver) buildReport(roots []*graph.Node) *Report {
	seen := make(map[graph.ID]bool)

	var visit func(n *graph.Node)
	visit = func(n *graph.Node) {
		if seen[n.ID] {
			return
		}
		seen[n.ID] = true
		for _, c := range n.Children {
			visit(c)
		}
	}
	for _, r := range roots {
		visit(r)
	}

	var recs []Record
	for _, r := range roots {
		if !d.Cache.IsChanged(r.ID) {
			continue
		}
		out, ok := d.Cache.Get(r.ID)
		if !ok {
			continue
		}
		recs = append(recs, Record{
			Line:     r.Line(),
			Snippet:  r.Snippet,
			IDPrefix: r.ID.Prefix8(),
			Outcome:  out,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Line < recs[j].Line })
	return &Report{Changed: recs}
}

// Persist serialises the cache for the next process restart (spec §4.7).
func (d *Driver) Persist() ([]byte, error) {
	data, err := d.Cache.Encode()
	if err != nil {
		return nil, fmt.Errorf("driver: encoding cache: %w", err)
	}
	return data, nil
}

// Restore replaces d.Cache (and the evaluator it backs) with the cache
// decoded from a prior run's sidecar bytes. On decode failure the
// returned error should be logged by the caller and the cache left as
// cache.New() (spec §4.7's "resets silently" contract; Decode already
// returns a usable empty cache alongside the error).
func Restore(data []byte) (*Driver, error) {
	c, err := cache.Decode(data)
	if err != nil {
		return New(c), err
	}
	return New(c), nil
}

// SetClock pins the evaluator's clock, so callers (tests, the live server)
// get deterministic cache timestamps.
func (d *Driver) SetClock(now func() time.Time) {
	d.Eval.Now = now
}
