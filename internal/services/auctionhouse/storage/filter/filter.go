// Package filter translates AIP-160 journal filters into SQL.
package filter

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// JournalDeclarations returns the fields a journal filter may reference.
func JournalDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("invocation_id", filtering.TypeString),
		filtering.DeclareIdent("kind", filtering.TypeString),
		filtering.DeclareIdent("mint", filtering.TypeString),
		filtering.DeclareIdent("source", filtering.TypeString),
		filtering.DeclareIdent("destination", filtering.TypeString),
		filtering.DeclareIdent("authority", filtering.TypeString),
		filtering.DeclareIdent("amount", filtering.TypeInt),
		filtering.DeclareIdent("at", filtering.TypeTimestamp),
	)
}

// SQLCondition is a WHERE clause fragment with positional parameters.
type SQLCondition struct {
	Clause string
	Params []any
}

// columns maps filter fields to journal columns.
var columns = map[string]string{
	"invocation_id": "invocation_id",
	"kind":          "kind",
	"mint":          "mint",
	"source":        "source",
	"destination":   "destination",
	"authority":     "authority",
	"amount":        "amount",
	"at":            "at",
}

var comparisons = map[string]string{
	"_==_": "=", "=": "=",
	"_!=_": "!=", "!=": "!=",
	"_<_": "<", "<": "<",
	"_<=_": "<=", "<=": "<=",
	"_>_": ">", ">": ">",
	"_>=_": ">=", ">=": ">=",
}

// ParseJournalFilter parses filter and returns the matching SQL condition.
// An empty filter yields an empty condition.
func ParseJournalFilter(filter string) (SQLCondition, error) {
	if strings.TrimSpace(filter) == "" {
		return SQLCondition{}, nil
	}
	decls, err := JournalDeclarations()
	if err != nil {
		return SQLCondition{}, fmt.Errorf("create declarations: %w", err)
	}
	parsed, err := filtering.ParseFilterString(filter, decls)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("parse filter: %w", err)
	}
	return translate(parsed.CheckedExpr.GetExpr())
}

func translate(e *expr.Expr) (SQLCondition, error) {
	call := e.GetCallExpr()
	if call == nil {
		return SQLCondition{}, fmt.Errorf("unsupported expression %T", e.GetExprKind())
	}
	switch call.GetFunction() {
	case "_&&_", "AND":
		return join(call.GetArgs(), "AND")
	case "_||_", "OR":
		return join(call.GetArgs(), "OR")
	case "NOT", "!_":
		if len(call.GetArgs()) != 1 {
			return SQLCondition{}, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := translate(call.GetArgs()[0])
		if err != nil {
			return SQLCondition{}, err
		}
		return SQLCondition{Clause: "NOT " + inner.Clause, Params: inner.Params}, nil
	}
	op, ok := comparisons[call.GetFunction()]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.GetFunction())
	}
	return compare(call.GetArgs(), op)
}

func join(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("%s requires 2 arguments", op)
	}
	left, err := translate(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	right, err := translate(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, op, right.Clause),
		Params: append(left.Params, right.Params...),
	}, nil
}

func compare(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}
	ident := args[0].GetIdentExpr()
	if ident == nil {
		return SQLCondition{}, fmt.Errorf("expected field on the left of %s", op)
	}
	column, ok := columns[ident.GetName()]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unknown field: %s", ident.GetName())
	}
	value, err := value(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value},
	}, nil
}

func value(e *expr.Expr) (any, error) {
	if c := e.GetConstExpr(); c != nil {
		switch kind := c.GetConstantKind().(type) {
		case *expr.Constant_StringValue:
			return kind.StringValue, nil
		case *expr.Constant_Int64Value:
			return kind.Int64Value, nil
		case *expr.Constant_Uint64Value:
			return int64(kind.Uint64Value), nil
		default:
			return nil, fmt.Errorf("unsupported constant type: %T", kind)
		}
	}
	if call := e.GetCallExpr(); call != nil && call.GetFunction() == "timestamp" && len(call.GetArgs()) == 1 {
		return timestampMillis(call.GetArgs()[0])
	}
	return nil, fmt.Errorf("expected constant or timestamp, got %T", e.GetExprKind())
}

// timestampMillis converts timestamp("...") to the journal's unix
// millisecond column format.
func timestampMillis(e *expr.Expr) (int64, error) {
	raw := e.GetConstExpr().GetStringValue()
	if raw == "" {
		return 0, fmt.Errorf("timestamp argument must be a constant string")
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp format: %s", raw)
	}
	return t.UTC().UnixMilli(), nil
}
