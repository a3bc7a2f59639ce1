package filterexpr

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Msg wraps request DTOs that expose filter and order_by raw inputs.
type Msg interface {
	GetFilter() string
	GetOrderBy() string
}

// ValueKind describes the kind of literal value a field accepts.
type ValueKind string

const (
	KindString ValueKind = "string"
	KindNumber ValueKind = "number"
	KindBool   ValueKind = "bool"
)

// Op represents a supported comparison operation.
type Op string

const (
	OpEQ Op = "=="
	OpSW Op = "startsWith"
	OpIN Op = "in"
)

// FilterField maps the operators allowed on a filter field to the params
// struct field each one assigns.
type FilterField struct {
	Kind ValueKind
	Ops  map[Op]string
}

// ResourceSchema aggregates filtering and ordering rules for a resource.
type ResourceSchema struct {
	Filter map[string]FilterField
	Order  OrderSchema
}

// Bind parses the request filter into binding (a pointer to a params struct)
// and resolves the requested order.
//
// Filters are conjunctions of atomic predicates:
//
//	category == 'animals' && difficulty in ['easy', 'medium'] && answer_word.startsWith('CA')
func Bind(msg Msg, binding any, schema ResourceSchema) (Order, error) {
	if err := bindFilter(binding, msg.GetFilter(), schema.Filter); err != nil {
		return Order{}, fmt.Errorf("filter: %w", err)
	}
	order, err := ParseOrderBy(msg.GetOrderBy(), schema.Order)
	if err != nil {
		return Order{}, fmt.Errorf("order_by: %w", err)
	}
	return order, nil
}

type predicate struct {
	Field string
	Op    Op
	Value any
}

func bindFilter(binding any, filter string, fields map[string]FilterField) error {
	dest := reflect.ValueOf(binding)
	if dest.Kind() != reflect.Ptr || dest.IsNil() || dest.Elem().Kind() != reflect.Struct {
		return errors.New("binding must be a non-nil pointer to a struct")
	}
	dest = dest.Elem()

	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil
	}
	if len(fields) == 0 {
		return errors.New("filtering is not supported for this resource")
	}

	env, err := newEnv(fields)
	if err != nil {
		return err
	}
	ast, issues := env.Parse(filter)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("invalid filter: %w", issues.Err())
	}
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return fmt.Errorf("failed to convert AST: %w", err)
	}

	conjuncts, err := flattenAnd(parsed.GetExpr())
	if err != nil {
		return err
	}
	bound := make(map[string]bool, len(conjuncts))
	for _, expr := range conjuncts {
		pred, err := toPredicate(expr)
		if err != nil {
			return err
		}
		rule, ok := fields[pred.Field]
		if !ok {
			return fmt.Errorf("field %q is not allowed", pred.Field)
		}
		target, ok := rule.Ops[pred.Op]
		if !ok {
			return fmt.Errorf("operator %q is not allowed for field %q", pred.Op, pred.Field)
		}
		if err := checkLiteral(rule.Kind, pred.Op, pred.Value); err != nil {
			return fmt.Errorf("field %q: %w", pred.Field, err)
		}
		if bound[target] {
			return fmt.Errorf("field %q: operator %q used more than once", pred.Field, pred.Op)
		}
		bound[target] = true
		field := dest.FieldByName(target)
		if !field.IsValid() || !field.CanSet() {
			return fmt.Errorf("params struct %s has no settable field %q", dest.Type(), target)
		}
		if err := assign(field, pred.Value); err != nil {
			return fmt.Errorf("field %q: %w", pred.Field, err)
		}
	}
	return nil
}

func newEnv(fields map[string]FilterField) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(fields)+1)
	for name, rule := range fields {
		var t *cel.Type
		switch rule.Kind {
		case KindString:
			t = cel.StringType
		case KindNumber:
			t = cel.DoubleType
		case KindBool:
			t = cel.BoolType
		default:
			return nil, fmt.Errorf("field %q: unsupported kind %s", name, rule.Kind)
		}
		opts = append(opts, cel.Variable(name, t))
	}
	opts = append(opts, cel.CrossTypeNumericComparisons(true))
	return cel.NewEnv(opts...)
}

// flattenAnd turns nested binary && calls into a flat list. Any other
// logical operator is rejected.
func flattenAnd(expr *exprpb.Expr) ([]*exprpb.Expr, error) {
	if expr == nil {
		return nil, errors.New("empty expression")
	}
	call := expr.GetCallExpr()
	if call == nil {
		return []*exprpb.Expr{expr}, nil
	}
	switch call.Function {
	case "_&&_":
		var out []*exprpb.Expr
		for _, arg := range call.Args {
			sub, err := flattenAnd(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil
	case "_||_", "_?_:_", "!_":
		return nil, fmt.Errorf("logical operator %q is not supported; only && is allowed", call.Function)
	default:
		return []*exprpb.Expr{expr}, nil
	}
}

func toPredicate(expr *exprpb.Expr) (predicate, error) {
	call := expr.GetCallExpr()
	if call == nil {
		return predicate{}, errors.New("expected a comparison or function call")
	}

	var fieldExpr, valueExpr *exprpb.Expr
	var op Op
	switch call.Function {
	case "_==_":
		op = OpEQ
	case "@in", "_in_":
		op = OpIN
	case "startsWith":
		op = OpSW
	default:
		return predicate{}, fmt.Errorf("function %q is not supported", call.Function)
	}

	switch {
	case call.Target != nil && len(call.Args) == 1:
		fieldExpr, valueExpr = call.Target, call.Args[0]
	case call.Target == nil && len(call.Args) == 2:
		fieldExpr, valueExpr = call.Args[0], call.Args[1]
	default:
		return predicate{}, fmt.Errorf("operator %q expects two operands", op)
	}

	ident := fieldExpr.GetIdentExpr()
	if ident == nil {
		return predicate{}, errors.New("left-hand side must be an identifier")
	}
	value, err := literal(valueExpr)
	if err != nil {
		return predicate{}, err
	}
	return predicate{Field: ident.GetName(), Op: op, Value: value}, nil
}

func literal(expr *exprpb.Expr) (any, error) {
	if c := expr.GetConstExpr(); c != nil {
		switch c.ConstantKind.(type) {
		case *exprpb.Constant_StringValue:
			return c.GetStringValue(), nil
		case *exprpb.Constant_Int64Value:
			return float64(c.GetInt64Value()), nil
		case *exprpb.Constant_Uint64Value:
			return float64(c.GetUint64Value()), nil
		case *exprpb.Constant_DoubleValue:
			return c.GetDoubleValue(), nil
		case *exprpb.Constant_BoolValue:
			return c.GetBoolValue(), nil
		default:
			return nil, fmt.Errorf("literal type %T is not supported", c.ConstantKind)
		}
	}
	if list := expr.GetListExpr(); list != nil {
		values := make([]string, len(list.GetElements()))
		for i, elem := range list.GetElements() {
			v, err := literal(elem)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			s, ok := v.(string)
			if !ok {
				return nil, errors.New("list literal elements must be strings")
			}
			values[i] = s
		}
		return values, nil
	}
	return nil, errors.New("right-hand side must be a literal or a list literal")
}

func checkLiteral(kind ValueKind, op Op, value any) error {
	if op == OpIN {
		list, ok := value.([]string)
		if !ok || kind != KindString {
			return errors.New("in requires a list of string literals")
		}
		if len(list) == 0 {
			return errors.New("list literal must not be empty")
		}
		return nil
	}
	var ok bool
	switch kind {
	case KindString:
		_, ok = value.(string)
	case KindNumber:
		_, ok = value.(float64)
	case KindBool:
		_, ok = value.(bool)
	}
	if !ok {
		return fmt.Errorf("expected %s literal", kind)
	}
	return nil
}

func assign(field reflect.Value, value any) error {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return assign(field.Elem(), value)
	}

	switch v := value.(type) {
	case string:
		if field.Kind() != reflect.String {
			return fmt.Errorf("expected string destination, got %s", field.Kind())
		}
		field.SetString(v)
	case bool:
		if field.Kind() != reflect.Bool {
			return fmt.Errorf("expected bool destination, got %s", field.Kind())
		}
		field.SetBool(v)
	case []string:
		if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("expected string slice destination, got %s", field.Type())
		}
		out := reflect.MakeSlice(field.Type(), len(v), len(v))
		for i, s := range v {
			out.Index(i).SetString(s)
		}
		field.Set(out)
	case float64:
		switch field.Kind() {
		case reflect.Float32, reflect.Float64:
			field.SetFloat(v)
		case reflect.Int, reflect.Int32, reflect.Int64:
			if math.Trunc(v) != v {
				return fmt.Errorf("value %v is not an integer", v)
			}
			if field.OverflowInt(int64(v)) {
				return fmt.Errorf("value %v overflows %s", v, field.Type())
			}
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected numeric destination, got %s", field.Kind())
		}
	default:
		return fmt.Errorf("unsupported literal type %T", value)
	}
	return nil
}
