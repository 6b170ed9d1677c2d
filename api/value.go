// Package api defines the stable, serialisable result types shared by the
// evaluator, the cache, and the reporter: Value and Error.
package api

import (
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/oj"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	// KindInt holds a 64-bit signed integer.
	KindInt ValueKind = iota
	// KindText holds a Unicode string.
	KindText
	// KindJSON holds an opaque parsed JSON document.
	KindJSON
)

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindText:
		return "text"
	case KindJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Value is the closed sum of results a Garden expression can produce.
// Zero value is the integer 0, matching the Int variant's zero Num.
type Value struct {
	Kind ValueKind
	Num  int64       // valid when Kind == KindInt
	Str  string      // valid when Kind == KindText
	Doc  interface{} // valid when Kind == KindJSON; decoded via ojg/oj
}

// Int constructs an integer Value.
func Int(n int64) Value { return Value{Kind: KindInt, Num: n} }

// Text constructs a text Value.
func Text(s string) Value { return Value{Kind: KindText, Str: s} }

// JSON constructs a JSON-document Value.
func JSON(doc interface{}) Value { return Value{Kind: KindJSON, Doc: doc} }

// Equal reports structural equality between two values.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.Num == o.Num
	case KindText:
		return v.Str == o.Str
	case KindJSON:
		return oj.JSON(v.Doc) == oj.JSON(o.Doc)
	default:
		return false
	}
}

// Repr renders the value the way the terminal report shows it: integers
// bare, text double-quoted, JSON documents as compact JSON.
func (v Value) Repr() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.Num)
	case KindText:
		return fmt.Sprintf("%q", v.Str)
	case KindJSON:
		return oj.JSON(v.Doc)
	default:
		return "<invalid value>"
	}
}

// wireValue is the JSON envelope for a Value, used by the persistent cache.
type wireValue struct {
	Kind string          `json:"kind"`
	Num  int64           `json:"num,omitempty"`
	Str  string          `json:"str,omitempty"`
	Doc  json.RawMessage `json:"doc,omitempty"`
}

// MarshalJSON implements a tagged-union encoding so the cache file round-trips.
func (v Value) MarshalJSON() ([]byte, error) {
	w := wireValue{Kind: v.Kind.String()}
	switch v.Kind {
	case KindInt:
		w.Num = v.Num
	case KindText:
		w.Str = v.Str
	case KindJSON:
		raw := oj.JSON(v.Doc)
		w.Doc = json.RawMessage(raw)
	default:
		return nil, fmt.Errorf("api: marshal value: unknown kind %d", v.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements the reverse of MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case "int":
		*v = Int(w.Num)
	case "text":
		*v = Text(w.Str)
	case "json":
		doc, err := oj.Parse(w.Doc)
		if err != nil {
			return fmt.Errorf("api: unmarshal json value: %w", err)
		}
		*v = JSON(doc)
	default:
		return fmt.Errorf("api: unmarshal value: unknown kind %q", w.Kind)
	}
	return nil
}

// ErrorKind tags the variant held by an Error.
type ErrorKind int

const (
	// ErrParse signals a failure from the parser collaborator.
	ErrParse ErrorKind = iota
	// ErrEval signals a type mismatch, arity mismatch, undefined symbol,
	// unknown head, or unsupported JSON shape.
	ErrEval
	// ErrHTTP signals a transport, redirect, or decoding failure.
	ErrHTTP
	// ErrJSON signals a JSON parse failure.
	ErrJSON
)

func (k ErrorKind) String() string {
	switch k {
	case ErrParse:
		return "parse"
	case ErrEval:
		return "eval"
	case ErrHTTP:
		return "http"
	case ErrJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Error is Garden's first-class error value. It is deliberately not a Go
// `error`: it may be cached and reported like any Value, and it never
// propagates past the driver boundary (see the driver's root loop, which
// keeps evaluating later roots after one errors).
type Error struct {
	Kind    ErrorKind
	Message string
}

func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Error implements Go's error interface so an *Error can also be returned
// and wrapped with fmt.Errorf at process boundaries when convenient.
func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Repr renders the error the way the terminal report shows it.
func (e *Error) Repr() string {
	return fmt.Sprintf("Error: %s", e.Message)
}

type wireError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireError{Kind: e.Kind.String(), Message: e.Message})
}

func (e *Error) UnmarshalJSON(data []byte) error {
	var w wireError
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case "parse":
		e.Kind = ErrParse
	case "eval":
		e.Kind = ErrEval
	case "http":
		e.Kind = ErrHTTP
	case "json":
		e.Kind = ErrJSON
	default:
		return fmt.Errorf("api: unmarshal error: unknown kind %q", w.Kind)
	}
	e.Message = w.Message
	return nil
}

// Outcome is the result of one evaluation: either a Value or an Error,
// never both. It is what the cache and the reporter actually store.
type Outcome struct {
	Value Value
	Err   *Error
}

// Repr renders whichever branch is populated.
func (o Outcome) Repr() string {
	if o.Err != nil {
		return o.Err.Repr()
	}
	return o.Value.Repr()
}

// Equal reports whether two outcomes are indistinguishable for change
// detection: same branch, and that branch structurally equal.
func (o Outcome) Equal(other Outcome) bool {
	if (o.Err == nil) != (other.Err == nil) {
		return false
	}
	if o.Err != nil {
		return o.Err.Kind == other.Err.Kind && o.Err.Message == other.Err.Message
	}
	return o.Value.Equal(other.Value)
}

type wireOutcome struct {
	Value *Value `json:"value,omitempty"`
	Err   *Error `json:"error,omitempty"`
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	w := wireOutcome{}
	if o.Err != nil {
		w.Err = o.Err
	} else {
		v := o.Value
		w.Value = &v
	}
	return json.Marshal(w)
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var w wireOutcome
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Err != nil {
		o.Err = w.Err
		o.Value = Value{}
		return nil
	}
	if w.Value == nil {
		return fmt.Errorf("api: unmarshal outcome: neither value nor error present")
	}
	o.Value = *w.Value
	o.Err = nil
	return nil
}
