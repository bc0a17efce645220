package query

import (
	"encoding/json"
	"maps"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/tidwall/gjson"
)

// Query is a compiled projection over a decoded response payload.
// It is safe for concurrent use.
type Query struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// Compiler compiles expressions, optionally caching the result
type Compiler struct {
	helpers map[string]any
	cache   *lruCache
}

// Option configures a Compiler
type Option func(*Compiler)

// WithCache keeps up to size compiled queries
func WithCache(size int) Option {
	return func(c *Compiler) {
		if size > 0 {
			c.cache = newLRUCache(size)
		}
	}
}

// WithFunctions adds helper functions callable from expressions
func WithFunctions(funcs map[string]any) Option {
	return func(c *Compiler) {
		maps.Copy(c.helpers, funcs)
	}
}

// NewCompiler creates a compiler with the default helper functions
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{helpers: helperFunctions()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile parses expression. The decoded payload is available to it as data.
func (c *Compiler) Compile(expression string) (*Query, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{Expression: expression, Reason: "empty expression"}
	}

	if c.cache != nil {
		if q, ok := c.cache.Get(expression); ok {
			return q, nil
		}
	}

	program, err := expr.Compile(expression, expr.Env(c.helpers), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, &CompilationError{Expression: expression, Reason: "failed to compile expression", Err: err}
	}

	q := &Query{expression: expression, program: program, helpers: c.helpers}
	if c.cache != nil {
		c.cache.Put(expression, q)
	}
	return q, nil
}

// Cached returns the number of cached compiled queries
func (c *Compiler) Cached() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

// Expression returns the source of q
func (q *Query) Expression() string {
	return q.expression
}

// Eval runs q with payload bound to data. gjson results and raw JSON
// strings are converted to plain Go values first.
func (q *Query) Eval(payload any) (any, error) {
	env := make(map[string]any, len(q.helpers)+1)
	maps.Copy(env, q.helpers)
	env["data"] = normalize(payload)

	out, err := expr.Run(q.program, env)
	if err != nil {
		return nil, &EvaluationError{Expression: q.expression, Err: err}
	}
	return out, nil
}

// Run compiles and evaluates expression against payload in one step
func (c *Compiler) Run(expression string, payload any) (any, error) {
	q, err := c.Compile(expression)
	if err != nil {
		return nil, err
	}
	return q.Eval(payload)
}

func normalize(payload any) any {
	switch p := payload.(type) {
	case gjson.Result:
		return p.Value()
	case string:
		if gjson.Valid(p) {
			return gjson.Parse(p).Value()
		}
		return p
	case []byte:
		if gjson.ValidBytes(p) {
			return gjson.ParseBytes(p).Value()
		}
		return string(p)
	default:
		return p
	}
}

func helperFunctions() map[string]any {
	return map[string]any{
		// path looks up a gjson path such as "realms.#.name" in v
		"path": func(v any, p string) any {
			b, err := json.Marshal(v)
			if err != nil {
				return nil
			}
			return gjson.GetBytes(b, p).Value()
		},
		"contains": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"startsWith": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}
}
