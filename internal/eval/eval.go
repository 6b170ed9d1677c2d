// Package eval is Garden's memoising recursive evaluator (spec §4.4): the
// single operation Eval(node, env) -> Outcome, dispatching on node.Kind.
//
// Grounded on the teacher's internal/ingest/engine.go Engine, whose
// switch-on-record-kind dispatch shape generalises directly from "ingest
// one record" to "evaluate one node".
package eval

import (
	"strings"
	"time"

	"github.com/agentic-research/garden/api"
	"github.com/agentic-research/garden/internal/cache"
	"github.com/agentic-research/garden/internal/graph"
	"github.com/agentic-research/garden/internal/scope"
)

// HTTPClient is the HTTP collaborator (spec §6): a blocking GET with
// redirect-following and UTF-8 decoding. Injectable so tests never hit
// the network.
type HTTPClient interface {
	Get(url string) (body string, err error)
}

// Evaluator holds the collaborators Eval needs beyond the pure node graph:
// the cache it memoises through, and the HTTP client for http-get.
type Evaluator struct {
	Cache *cache.Cache
	HTTP  HTTPClient
	// Now is injectable for deterministic cache-timestamp tests.
	Now func() time.Time
}

// New returns an Evaluator wired to c, with the default net/http client.
func New(c *cache.Cache) *Evaluator {
	return &Evaluator{Cache: c, HTTP: defaultHTTPClient{}, Now: time.Now}
}

// Eval evaluates node under env, memoising through the cache for every
// kind except Symbol (spec §4.4's "strategy (a)": a symbol's meaning
// depends on env, so it is never cached under its own id — the defining
// node's cache entry carries the result instead).
func (e *Evaluator) Eval(node *graph.Node, env *scope.Environment) api.Outcome {
	if node.Kind == graph.KindSymbol {
		return e.evalSymbol(node, env)
	}

	if out, ok := e.Cache.Get(node.ID); ok {
		return out
	}
	out := e.compute(node, env)
	e.Cache.Put(node.ID, out, e.Now())
	return out
}

func (e *Evaluator) evalSymbol(node *graph.Node, env *scope.Environment) api.Outcome {
	name := node.Name()
	id, ok := env.Resolve(name)
	if !ok {
		return errOutcome(api.ErrEval, "undefined symbol %q", name)
	}
	defining, ok := e.Cache.NodeByID(id)
	if !ok {
		return errOutcome(api.ErrEval, "internal error: binding for %q points to an unregistered node", name)
	}
	return e.Eval(defining, env)
}

func (e *Evaluator) compute(node *graph.Node, env *scope.Environment) api.Outcome {
	want := -1
	switch node.Kind {
	case graph.KindDefinition, graph.KindLetStatement, graph.KindJSONGet:
		want = 3
	case graph.KindLetExpression:
		want = 4
	case graph.KindHTTPGet, graph.KindJSONParse, graph.KindStringUpper:
		want = 2
	}
	if want >= 0 && len(node.Children) != want {
		return errOutcome(api.ErrEval, "%s expects %d argument(s), got %d", headName(node), want-1, len(node.Children)-1)
	}

	switch node.Kind {
	case graph.KindIntegerLiteral:
		return api.Outcome{Value: api.Int(node.IntValue)}
	case graph.KindStringLiteral:
		return api.Outcome{Value: api.Text(node.StrValue)}
	case graph.KindDefinition, graph.KindLetStatement:
		return e.evalDefinitionLike(node, env)
	case graph.KindLetExpression:
		return e.evalLetExpression(node, env)
	case graph.KindAddition:
		return e.evalArithmetic(node, env, 0, func(acc, v int64) int64 { return acc + v })
	case graph.KindMultiplication:
		return e.evalArithmetic(node, env, 1, func(acc, v int64) int64 { return acc * v })
	case graph.KindHTTPGet:
		return e.evalHTTPGet(node, env)
	case graph.KindJSONParse:
		return e.evalJSONParse(node, env)
	case graph.KindJSONGet:
		return e.evalJSONGet(node, env)
	case graph.KindStringUpper:
		return e.evalStringUpper(node, env)
	case graph.KindGenericCall:
		return errOutcome(api.ErrEval, "unknown function %q", headName(node))
	case graph.KindGenericList:
		return errOutcome(api.ErrEval, "empty list is not callable")
	default:
		return errOutcome(api.ErrEval, "unevaluable node kind %v", node.Kind)
	}
}

// evalDefinitionLike implements both `(def NAME VALUE)` and the
// let-statement form `(let NAME VALUE)`: evaluate VALUE, return its
// result. Binding the name is the driver's job at the root boundary
// (spec §4.5) — eval never mutates env.
func (e *Evaluator) evalDefinitionLike(node *graph.Node, env *scope.Environment) api.Outcome {
	value := node.Children[2]
	return e.Eval(value, env)
}

func (e *Evaluator) evalLetExpression(node *graph.Node, env *scope.Environment) api.Outcome {
	name := node.Children[1].Name()
	value := node.Children[2]
	body := node.Children[3]

	valueOut := e.Eval(value, env)
	if valueOut.Err != nil {
		return valueOut
	}
	extended := env.ExtendWith(name, value.ID)
	return e.Eval(body, extended)
}

func (e *Evaluator) evalArithmetic(node *graph.Node, env *scope.Environment, identity int64, combine func(acc, v int64) int64) api.Outcome {
	args := node.Children[1:]
	if len(args) == 0 {
		return errOutcome(api.ErrEval, "%s requires at least one argument", headName(node))
	}
	acc := identity
	first := true
	for _, arg := range args {
		out := e.Eval(arg, env)
		if out.Err != nil {
			return out
		}
		if out.Value.Kind != api.KindInt {
			return errOutcome(api.ErrEval, "%s: argument %q is not an integer", headName(node), out.Value.Repr())
		}
		if first {
			acc = out.Value.Num
			first = false
			continue
		}
		acc = combine(acc, out.Value.Num)
	}
	return api.Outcome{Value: api.Int(acc)}
}

func (e *Evaluator) evalHTTPGet(node *graph.Node, env *scope.Environment) api.Outcome {
	urlOut := e.Eval(node.Children[1], env)
	if urlOut.Err != nil {
		return urlOut
	}
	if urlOut.Value.Kind != api.KindText {
		return errOutcome(api.ErrEval, "http.get: URL must be text")
	}
	body, err := e.HTTP.Get(urlOut.Value.Str)
	if err != nil {
		return errOutcome(api.ErrHTTP, "%s", err.Error())
	}
	return api.Outcome{Value: api.Text(body)}
}

func (e *Evaluator) evalJSONParse(node *graph.Node, env *scope.Environment) api.Outcome {
	textOut := e.Eval(node.Children[1], env)
	if textOut.Err != nil {
		return textOut
	}
	if textOut.Value.Kind != api.KindText {
		return errOutcome(api.ErrEval, "json.parse: argument must be text")
	}
	doc, err := parseJSON(textOut.Value.Str)
	if err != nil {
		return errOutcome(api.ErrJSON, "%s", err.Error())
	}
	return api.Outcome{Value: api.JSON(doc)}
}

func (e *Evaluator) evalJSONGet(node *graph.Node, env *scope.Environment) api.Outcome {
	jsonOut := e.Eval(node.Children[1], env)
	if jsonOut.Err != nil {
		return jsonOut
	}
	if jsonOut.Value.Kind != api.KindJSON {
		return errOutcome(api.ErrEval, "get: first argument must be a JSON document")
	}
	keyOut := e.Eval(node.Children[2], env)
	if keyOut.Err != nil {
		return keyOut
	}
	if keyOut.Value.Kind != api.KindText {
		return errOutcome(api.ErrEval, "get: key must be text")
	}
	key := keyOut.Value.Str

	obj, ok := jsonOut.Value.Doc.(map[string]interface{})
	if !ok {
		return errOutcome(api.ErrEval, "get: document is not a JSON object")
	}
	raw, present := obj[key]
	if !present {
		return errOutcome(api.ErrEval, "get: key %q not found", key)
	}
	return projectJSON(raw, key)
}

// projectJSON converts a decoded JSON value to a Value, refusing every
// shape but string and integer (spec §4.4, §9 "JSON fidelity" — kept as
// specified, not revisited).
func projectJSON(raw interface{}, key string) api.Outcome {
	switch v := raw.(type) {
	case string:
		return api.Outcome{Value: api.Text(v)}
	case int64:
		return api.Outcome{Value: api.Int(v)}
	case int:
		return api.Outcome{Value: api.Int(int64(v))}
	case float64:
		if v == float64(int64(v)) {
			return api.Outcome{Value: api.Int(int64(v))}
		}
		return errOutcome(api.ErrEval, "get: value at %q is not an integer or string", key)
	default:
		return errOutcome(api.ErrEval, "get: value at %q is not an integer or string", key)
	}
}

func (e *Evaluator) evalStringUpper(node *graph.Node, env *scope.Environment) api.Outcome {
	textOut := e.Eval(node.Children[1], env)
	if textOut.Err != nil {
		return textOut
	}
	if textOut.Value.Kind != api.KindText {
		return errOutcome(api.ErrEval, "str.upper: argument must be text")
	}
	return api.Outcome{Value: api.Text(strings.ToUpper(textOut.Value.Str))}
}

func errOutcome(kind api.ErrorKind, format string, args ...interface{}) api.Outcome {
	return api.Outcome{Err: api.NewError(kind, format, args...)}
}

func headName(node *graph.Node) string {
	if len(node.Children) == 0 {
		return "<empty>"
	}
	return node.Children[0].Name()
}

