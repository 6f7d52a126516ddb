package model

import (
	"fmt"
	"strings"

	"shrinker/internal/graph"
	"shrinker/internal/types"
)

// ParseOp parses one code line in the syntax graph.FormatOp produces:
//
//	new-instance La/B;
//	iget La/B;->x:I
//	invoke-virtual La/B;->m()V
//	lambda La/Fn; apply(Ljava/lang/Object;)V La/Main;->lambda$0(Ljava/lang/Object;)V
func ParseOp(in *types.Interner, line string) (graph.Op, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return graph.Op{}, fmt.Errorf("empty instruction")
	}
	kind, ok := graph.ParseOpKind(fields[0])
	if !ok {
		return graph.Op{}, fmt.Errorf("unknown instruction %q", fields[0])
	}
	args := fields[1:]
	op := graph.Op{Kind: kind}
	var err error
	switch kind {
	case graph.OpConstClass, graph.OpCheckCast, graph.OpInstanceOf, graph.OpInitClass, graph.OpNewInstance:
		if err := arity(kind, args, 1); err != nil {
			return graph.Op{}, err
		}
		op.Type, err = in.ParseType(args[0])
	case graph.OpStaticGet, graph.OpStaticPut, graph.OpInstanceGet, graph.OpInstancePut:
		if err := arity(kind, args, 1); err != nil {
			return graph.Op{}, err
		}
		op.Field, err = in.ParseFieldRef(args[0])
	case graph.OpLambda:
		op.Lambda, err = parseLambda(in, args)
	default:
		if err := arity(kind, args, 1); err != nil {
			return graph.Op{}, err
		}
		op.Method, err = in.ParseMethodRef(args[0])
	}
	if err != nil {
		return graph.Op{}, fmt.Errorf("%s: %w", kind, err)
	}
	return op, nil
}

func arity(kind graph.OpKind, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s takes %d operand(s), got %d", kind, n, len(args))
	}
	return nil
}

// parseLambda reads "iface... name(proto) impl".
func parseLambda(in *types.Interner, args []string) (*graph.Lambda, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("expected interfaces, method and implementation, got %d operand(s)", len(args))
	}
	sig := args[len(args)-2]
	i := strings.IndexByte(sig, '(')
	if i <= 0 {
		return nil, fmt.Errorf("malformed lambda method %q", sig)
	}
	proto, err := in.ParseProto(sig[i:])
	if err != nil {
		return nil, err
	}
	impl, err := in.ParseMethodRef(args[len(args)-1])
	if err != nil {
		return nil, err
	}
	l := &graph.Lambda{Name: in.Intern(sig[:i]), Proto: proto, Impl: impl}
	if l.Interfaces, err = classTypes(in, args[:len(args)-2]); err != nil {
		return nil, err
	}
	return l, nil
}
