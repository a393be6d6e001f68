// Package filter provides AIP-160 filter parsing for event listings, with a
// SQL translation for durable stores and an in-memory predicate for the rest.
package filter

import (
	"fmt"
	"strings"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/event"
)

// EventDeclarations returns the field declarations for event filtering.
func EventDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("type", filtering.TypeString),
		filtering.DeclareIdent("kind", filtering.TypeString),
		filtering.DeclareIdent("location", filtering.TypeString),
		filtering.DeclareIdent("handler", filtering.TypeString),
		filtering.DeclareIdent("index", filtering.TypeInt),
		filtering.DeclareIdent("timestamp", filtering.TypeInt),
	)
}

// SQLCondition represents a SQL WHERE clause fragment with parameters.
type SQLCondition struct {
	// Clause is the SQL WHERE clause (e.g., "event_type = ?").
	Clause string
	// Params are the positional parameters for the clause.
	Params []any
}

// fieldMapping maps filter field names to SQL column names.
var fieldMapping = map[string]string{
	"type":      "event_type",
	"kind":      "event_kind",
	"location":  "location",
	"handler":   "handler",
	"index":     "event_index",
	"timestamp": "ledger_timestamp",
}

// Filter is a parsed event filter. The zero value matches every event.
type Filter struct {
	raw  string
	root *node
}

type nodeOp int

const (
	opCompare nodeOp = iota
	opAnd
	opOr
	opNot
)

type node struct {
	op       nodeOp
	children []*node
	field    string
	cmp      string
	value    any
}

// ParseEventFilter parses an AIP-160 filter expression. An empty expression
// yields a filter that matches everything. Failures carry INVALID_FILTER.
func ParseEventFilter(filterStr string) (Filter, error) {
	filterStr = strings.TrimSpace(filterStr)
	if filterStr == "" {
		return Filter{}, nil
	}

	decls, err := EventDeclarations()
	if err != nil {
		return Filter{}, fmt.Errorf("create declarations: %w", err)
	}

	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return Filter{}, invalid(fmt.Errorf("parse filter: %w", err))
	}

	root, err := buildNode(parsed.CheckedExpr.GetExpr())
	if err != nil {
		return Filter{}, invalid(err)
	}
	return Filter{raw: filterStr, root: root}, nil
}

func invalid(err error) error {
	return apperrors.Wrap(apperrors.CodeInvalidFilter, err.Error(), err)
}

// String returns the normalized source expression.
func (f Filter) String() string {
	return f.raw
}

// IsEmpty reports whether the filter matches every event.
func (f Filter) IsEmpty() bool {
	return f.root == nil
}

func buildNode(e *expr.Expr) (*node, error) {
	if e == nil {
		return nil, nil
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return buildCall(kind.CallExpr)
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func buildCall(call *expr.Expr_Call) (*node, error) {
	switch call.Function {
	case "_&&_", "AND":
		return buildLogical(opAnd, call.Args)
	case "_||_", "OR":
		return buildLogical(opOr, call.Args)
	case "NOT", "-":
		if len(call.Args) != 1 {
			return nil, fmt.Errorf("NOT requires 1 argument")
		}
		child, err := buildNode(call.Args[0])
		if err != nil {
			return nil, err
		}
		return &node{op: opNot, children: []*node{child}}, nil
	case "_==_", "=":
		return buildComparison(call.Args, "=")
	case "_!=_", "!=":
		return buildComparison(call.Args, "!=")
	case "_<_", "<":
		return buildComparison(call.Args, "<")
	case "_<=_", "<=":
		return buildComparison(call.Args, "<=")
	case "_>_", ">":
		return buildComparison(call.Args, ">")
	case "_>=_", ">=":
		return buildComparison(call.Args, ">=")
	default:
		return nil, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func buildLogical(op nodeOp, args []*expr.Expr) (*node, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("logical operator requires 2 arguments")
	}
	left, err := buildNode(args[0])
	if err != nil {
		return nil, err
	}
	right, err := buildNode(args[1])
	if err != nil {
		return nil, err
	}
	return &node{op: op, children: []*node{left, right}}, nil
}

func buildComparison(args []*expr.Expr, cmp string) (*node, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("comparison requires 2 arguments")
	}

	field, err := extractFieldName(args[0])
	if err != nil {
		return nil, err
	}
	if _, ok := fieldMapping[field]; !ok {
		return nil, fmt.Errorf("unknown field: %s", field)
	}

	value, err := extractValue(args[1])
	if err != nil {
		return nil, err
	}
	return &node{op: opCompare, field: field, cmp: cmp, value: value}, nil
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	constExpr, ok := e.ExprKind.(*expr.Expr_ConstExpr)
	if !ok {
		return nil, fmt.Errorf("expected constant, got %T", e.ExprKind)
	}
	switch kind := constExpr.ConstExpr.GetConstantKind().(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		if kind.Uint64Value > 1<<63-1 {
			return nil, fmt.Errorf("integer constant out of range")
		}
		return int64(kind.Uint64Value), nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

// SQL translates the filter to a WHERE fragment over the events table.
func (f Filter) SQL() SQLCondition {
	if f.root == nil {
		return SQLCondition{}
	}
	return f.root.sql()
}

func (n *node) sql() SQLCondition {
	switch n.op {
	case opAnd, opOr:
		joiner := "AND"
		if n.op == opOr {
			joiner = "OR"
		}
		left := n.children[0].sql()
		right := n.children[1].sql()
		return SQLCondition{
			Clause: fmt.Sprintf("(%s %s %s)", left.Clause, joiner, right.Clause),
			Params: append(left.Params, right.Params...),
		}
	case opNot:
		inner := n.children[0].sql()
		return SQLCondition{Clause: fmt.Sprintf("NOT (%s)", inner.Clause), Params: inner.Params}
	default:
		return SQLCondition{
			Clause: fmt.Sprintf("%s %s ?", fieldMapping[n.field], n.cmp),
			Params: []any{n.value},
		}
	}
}

// Match evaluates the filter against evt.
func (f Filter) Match(evt event.Event) bool {
	if f.root == nil {
		return true
	}
	return f.root.match(evt)
}

func (n *node) match(evt event.Event) bool {
	switch n.op {
	case opAnd:
		return n.children[0].match(evt) && n.children[1].match(evt)
	case opOr:
		return n.children[0].match(evt) || n.children[1].match(evt)
	case opNot:
		return !n.children[0].match(evt)
	}

	switch n.field {
	case "type":
		return compareStrings(evt.Type.Label, n.cmp, n.value)
	case "kind":
		return compareStrings(string(evt.Type.Kind), n.cmp, n.value)
	case "location":
		return compareStrings(evt.Location, n.cmp, n.value)
	case "handler":
		return compareStrings(evt.Handler.String(), n.cmp, n.value)
	case "index":
		return compareInts(evt.Index, n.cmp, n.value)
	case "timestamp":
		return compareInts(evt.Timestamp, n.cmp, n.value)
	default:
		return false
	}
}

func compareStrings(got, cmp string, value any) bool {
	want, ok := value.(string)
	if !ok {
		return false
	}
	c := strings.Compare(got, want)
	return ordered(c, cmp)
}

func compareInts(got uint64, cmp string, value any) bool {
	want, ok := value.(int64)
	if !ok {
		return false
	}
	c := 0
	switch {
	case want < 0 || got > uint64(want):
		c = 1
	case got < uint64(want):
		c = -1
	}
	return ordered(c, cmp)
}

func ordered(c int, cmp string) bool {
	switch cmp {
	case "=":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	default:
		return false
	}
}
