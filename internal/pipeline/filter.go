package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/google/cel-go/cel"

	"sessionflow/internal/session"
)

// sessionFilter wraps a compiled CEL program evaluated against each decoded
// session before enrichment. When disabled, Eval always returns true.
type sessionFilter struct {
	prog    cel.Program
	enabled bool
}

func newSessionFilter(expr string) (sessionFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return sessionFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("session_id", cel.StringType),
		cel.Variable("customer_number", cel.IntType),
		cel.Variable("city", cel.StringType),
		cel.Variable("country", cel.StringType),
		cel.Variable("credit_limit", cel.DoubleType),
		cel.Variable("items", cel.IntType),
		// Expose raw parsed JSON payload (map/list/values) for field filtering
		cel.Variable("json", cel.DynType),
	)
	if err != nil {
		return sessionFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return sessionFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return sessionFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return sessionFilter{}, err
	}
	return sessionFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against one session. Evaluation
// errors reject the record.
func (f sessionFilter) Eval(s session.Session, payload []byte) bool {
	if !f.enabled {
		return true
	}
	var jsonObj any
	_ = json.Unmarshal(payload, &jsonObj)
	out, _, err := f.prog.Eval(map[string]any{
		"session_id":      s.ID,
		"customer_number": s.CustomerNumber,
		"city":            s.City,
		"country":         s.Country,
		"credit_limit":    s.CreditLimit,
		"items":           int64(len(s.LineItems)),
		"json":            jsonObj,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
