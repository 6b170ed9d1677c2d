package eval

import (
	"fmt"
	"testing"
	"time"

	"github.com/agentic-research/garden/api"
	"github.com/agentic-research/garden/internal/ast"
	"github.com/agentic-research/garden/internal/cache"
	"github.com/agentic-research/garden/internal/graph"
	"github.com/agentic-research/garden/internal/scope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHTTP struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (f *fakeHTTP) Get(url string) (string, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	return f.responses[url], nil
}

// runSequence mimics the driver's root loop (spec §4.5) just enough to
// exercise def/let bindings across multiple roots in these tests, without
// pulling in the internal/driver package.
func runSequence(t *testing.T, e *Evaluator, env *scope.Environment, src string) []api.Outcome {
	t.Helper()
	roots, perr := ast.Parse(src)
	require.Nil(t, perr)
	nodes := graph.LowerAll(roots)

	var outs []api.Outcome
	for _, n := range nodes {
		e.Cache.RegisterNode(n)
	}
	for _, n := range nodes {
		out := e.Eval(n, env)
		outs = append(outs, out)
		if (n.Kind == graph.KindDefinition || n.Kind == graph.KindLetStatement) && out.Err == nil {
			name := n.Children[1].Name()
			env.Bind(name, n.Children[2].ID)
		}
	}
	return outs
}

func newEvaluator() *Evaluator {
	e := New(cache.New())
	e.Now = func() time.Time { return time.Unix(0, 0) }
	return e
}

func TestEvalLiterals(t *testing.T) {
	e := newEvaluator()
	env := scope.NewRoot()
	outs := runSequence(t, e, env, `42 "hi"`)
	require.Len(t, outs, 2)
	assert.Equal(t, int64(42), outs[0].Value.Num)
	assert.Equal(t, "hi", outs[1].Value.Str)
}

func TestEvalDefinitionAndArithmeticScenario(t *testing.T) {
	// spec §8 scenario 1
	e := newEvaluator()
	env := scope.NewRoot()
	outs := runSequence(t, e, env, `(def x 2) (def y (* x 3)) (+ x y)`)
	require.Len(t, outs, 3)
	assert.Equal(t, int64(2), outs[0].Value.Num)
	assert.Equal(t, int64(6), outs[1].Value.Num)
	assert.Equal(t, int64(8), outs[2].Value.Num)
}

func TestEvalRedefinitionWinsForSubsequentRoots(t *testing.T) {
	e := newEvaluator()
	env := scope.NewRoot()
	outs := runSequence(t, e, env, `(def x 1) (def x 2) x`)
	require.Len(t, outs, 3)
	assert.Equal(t, int64(2), outs[2].Value.Num)
}

func TestEvalUndefinedSymbol(t *testing.T) {
	e := newEvaluator()
	env := scope.NewRoot()
	outs := runSequence(t, e, env, `x`)
	require.Len(t, outs, 1)
	require.NotNil(t, outs[0].Err)
	assert.Equal(t, api.ErrEval, outs[0].Err.Kind)
}

func TestEvalLetExpressionScopesAndShadows(t *testing.T) {
	// spec §8 scenario 6
	e := newEvaluator()
	env := scope.NewRoot()
	outs := runSequence(t, e, env, `(let a 1 (let a 2 (+ a a)))`)
	require.Len(t, outs, 1)
	assert.Equal(t, int64(4), outs[0].Value.Num)
	_, ok := env.Resolve("a")
	assert.False(t, ok, "outer scope must have no binding for a afterwards")
}

func TestEvalAdditionZeroArgsIsError(t *testing.T) {
	e := newEvaluator()
	env := scope.NewRoot()
	outs := runSequence(t, e, env, `(+ )`)
	require.Len(t, outs, 1)
	require.NotNil(t, outs[0].Err)
}

func TestEvalAdditionTypeMismatch(t *testing.T) {
	// spec §8 scenario 4
	e := newEvaluator()
	env := scope.NewRoot()
	outs := runSequence(t, e, env, `(+ 1 "two")`)
	require.Len(t, outs, 1)
	require.NotNil(t, outs[0].Err)
	assert.Equal(t, api.ErrEval, outs[0].Err.Kind)
}

func TestEvalArithmeticAssociativeCommutative(t *testing.T) {
	e := newEvaluator()
	env := scope.NewRoot()
	a := runSequence(t, e, env, `(+ 1 2 3)`)
	b := runSequence(t, e, env, `(+ 3 2 1)`)
	assert.Equal(t, a[0].Value.Num, b[0].Value.Num)

	c := runSequence(t, e, env, `(* 2 3 4)`)
	d := runSequence(t, e, env, `(* 4 3 2)`)
	assert.Equal(t, c[0].Value.Num, d[0].Value.Num)
}

func TestEvalStringUpper(t *testing.T) {
	// spec §8 scenario 3
	e := newEvaluator()
	env := scope.NewRoot()
	outs := runSequence(t, e, env, `(def greet "hi") (str.upper greet)`)
	require.Len(t, outs, 2)
	assert.Equal(t, "hi", outs[0].Value.Str)
	assert.Equal(t, "HI", outs[1].Value.Str)
}

func TestEvalJSONParseAndGet(t *testing.T) {
	e := newEvaluator()
	env := scope.NewRoot()
	outs := runSequence(t, e, env, `(def doc (json.parse "{\"name\": \"ok\", \"count\": 3}")) (get doc "name") (get doc "count")`)
	require.Len(t, outs, 3)
	require.Nil(t, outs[1].Err)
	assert.Equal(t, "ok", outs[1].Value.Str)
	require.Nil(t, outs[2].Err)
	assert.Equal(t, int64(3), outs[2].Value.Num)
}

func TestEvalJSONGetMissingKey(t *testing.T) {
	e := newEvaluator()
	env := scope.NewRoot()
	outs := runSequence(t, e, env, `(def doc (json.parse "{\"a\": 1}")) (get doc "missing")`)
	require.Len(t, outs, 2)
	require.NotNil(t, outs[1].Err)
	assert.Contains(t, outs[1].Err.Message, "missing")
}

func TestEvalJSONGetRefusesUnsupportedShapes(t *testing.T) {
	e := newEvaluator()
	env := scope.NewRoot()
	outs := runSequence(t, e, env, `(def doc (json.parse "{\"a\": [1,2], \"b\": true, \"c\": null, \"d\": {\"x\":1}}"))
(get doc "a") (get doc "b") (get doc "c") (get doc "d")`)
	require.Len(t, outs, 5)
	for _, out := range outs[1:] {
		assert.NotNil(t, out.Err, "non-primitive JSON shapes must be refused")
	}
}

func TestEvalJSONParseMalformed(t *testing.T) {
	e := newEvaluator()
	env := scope.NewRoot()
	outs := runSequence(t, e, env, `(json.parse "{not json")`)
	require.Len(t, outs, 1)
	require.NotNil(t, outs[0].Err)
	assert.Equal(t, api.ErrJSON, outs[0].Err.Kind)
}

func TestEvalHTTPGet(t *testing.T) {
	// spec §8 scenario 5
	e := newEvaluator()
	fake := &fakeHTTP{responses: map[string]string{"https://example/x": "payload"}}
	e.HTTP = fake
	env := scope.NewRoot()
	outs := runSequence(t, e, env, `(def u "https://example/x") (http.get u)`)
	require.Len(t, outs, 2)
	assert.Equal(t, "payload", outs[1].Value.Str)
	assert.Len(t, fake.calls, 1)

	// Second cycle, identical source: cache hit, no new HTTP call.
	env2 := scope.NewRoot()
	outs2 := runSequence(t, e, env2, `(def u "https://example/x") (http.get u)`)
	assert.Equal(t, "payload", outs2[1].Value.Str)
	assert.Len(t, fake.calls, 1, "identical URL node must be served from cache, not refetched")
}

func TestEvalHTTPGetError(t *testing.T) {
	e := newEvaluator()
	fake := &fakeHTTP{errs: map[string]error{"https://bad": fmt.Errorf("connection refused")}}
	e.HTTP = fake
	env := scope.NewRoot()
	outs := runSequence(t, e, env, `(http.get "https://bad")`)
	require.Len(t, outs, 1)
	require.NotNil(t, outs[0].Err)
	assert.Equal(t, api.ErrHTTP, outs[0].Err.Kind)
}

func TestEvalMemoizationWithinCycle(t *testing.T) {
	e := newEvaluator()
	fake := &fakeHTTP{responses: map[string]string{"https://x": "v"}}
	e.HTTP = fake
	env := scope.NewRoot()
	// Same http.get expression appears twice; identical node ids share
	// one cache entry (spec invariant: memoised result reused, no
	// re-invocation of primitives).
	runSequence(t, e, env, `(http.get "https://x") (http.get "https://x")`)
	assert.Len(t, fake.calls, 1)
}

func TestEvalGenericCallIsError(t *testing.T) {
	e := newEvaluator()
	env := scope.NewRoot()
	outs := runSequence(t, e, env, `(frobnicate 1 2)`)
	require.Len(t, outs, 1)
	require.NotNil(t, outs[0].Err)
}

func TestEvalEmptyListIsError(t *testing.T) {
	e := newEvaluator()
	env := scope.NewRoot()
	outs := runSequence(t, e, env, `()`)
	require.Len(t, outs, 1)
	require.NotNil(t, outs[0].Err)
}
