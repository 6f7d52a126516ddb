// Package model reads textual program models and lens step files. It is
// how the CLI gets a graph without a class-file front end.
//
// A program model is a TOML file with one [[class]] table per class:
//
//	[[class]]
//	type = "La/A;"
//	provenance = "program"     # program | classpath | library
//	flags = ["public"]
//	super = "La/Base;"         # omitted: java/lang/Object, "-": none
//	interfaces = ["La/I;"]
//
//	[[class.method]]
//	name = "run"
//	proto = "()V"
//	flags = ["public"]
//	code = ["new-instance La/B;", "invoke-virtual La/B;->m()V"]
//
//	[[class.field]]
//	name = "x"
//	type = "I"
//
// java/lang/Object is added as a library class unless the model defines it.
package model

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"shrinker/internal/diag"
	"shrinker/internal/graph"
	"shrinker/internal/types"
)

type programFile struct {
	Classes []classEntry `toml:"class"`
}

type classEntry struct {
	Type        string        `toml:"type"`
	Provenance  string        `toml:"provenance"`
	Flags       []string      `toml:"flags"`
	Super       string        `toml:"super"`
	Interfaces  []string      `toml:"interfaces"`
	NestHost    string        `toml:"nest_host"`
	NestMembers []string      `toml:"nest_members"`
	Annotations []string      `toml:"annotations"`
	Methods     []methodEntry `toml:"method"`
	Fields      []fieldEntry  `toml:"field"`
}

type methodEntry struct {
	Name        string   `toml:"name"`
	Proto       string   `toml:"proto"`
	Flags       []string `toml:"flags"`
	Code        []string `toml:"code"`
	Annotations []string `toml:"annotations"`
}

type fieldEntry struct {
	Name        string   `toml:"name"`
	Type        string   `toml:"type"`
	Flags       []string `toml:"flags"`
	Annotations []string `toml:"annotations"`
}

// Program is a decoded model, ready to be built into a graph.
type Program struct {
	in      *types.Interner
	classes []*graph.ClassDef
}

// Classes returns the decoded definitions in file order.
func (p *Program) Classes() []*graph.ClassDef { return p.classes }

// Build assembles a version 0 graph. Model problems such as missing super
// classes go to r.
func (p *Program) Build(r diag.Reporter) *graph.Graph {
	b := graph.NewBuilder(p.in).WithReporter(r)
	for _, c := range p.classes {
		b.Add(c)
	}
	return b.Build()
}

// LoadProgram reads a program model from path.
func LoadProgram(in *types.Interner, path string) (*Program, error) {
	var f programFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	p, err := decodeProgram(in, &f, meta)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParseProgram reads a program model from TOML text.
func ParseProgram(in *types.Interner, text string) (*Program, error) {
	var f programFile
	meta, err := toml.Decode(text, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return decodeProgram(in, &f, meta)
}

func decodeProgram(in *types.Interner, f *programFile, meta toml.MetaData) (*Program, error) {
	if err := rejectUndecoded(meta); err != nil {
		return nil, err
	}
	p := &Program{in: in}
	object := in.Builtins().Object
	hasObject := false
	for i := range f.Classes {
		c, err := decodeClass(in, &f.Classes[i])
		if err != nil {
			return nil, fmt.Errorf("class[%d] %s: %w", i, f.Classes[i].Type, err)
		}
		if c.Type == object {
			hasObject = true
		}
		p.classes = append(p.classes, c)
	}
	if !hasObject {
		p.classes = append([]*graph.ClassDef{graph.NewObjectClass(in)}, p.classes...)
	}
	return p, nil
}

func decodeClass(in *types.Interner, e *classEntry) (*graph.ClassDef, error) {
	t, err := classType(in, e.Type)
	if err != nil {
		return nil, err
	}
	prov, ok := graph.ParseProvenance(strings.ToLower(strings.TrimSpace(e.Provenance)))
	if !ok {
		return nil, fmt.Errorf("unknown provenance %q", e.Provenance)
	}
	flags, err := graph.ParseFlags(e.Flags)
	if err != nil {
		return nil, err
	}
	if flags.IsInterface() {
		flags |= graph.AccAbstract
	}
	c := graph.NewClass(t, prov, flags)
	c.Annotations = e.Annotations
	switch e.Super {
	case "":
		if t != in.Builtins().Object {
			c.Super = in.Builtins().Object
		}
	case "-":
	default:
		if c.Super, err = classType(in, e.Super); err != nil {
			return nil, fmt.Errorf("super: %w", err)
		}
	}
	if c.Interfaces, err = classTypes(in, e.Interfaces); err != nil {
		return nil, fmt.Errorf("interfaces: %w", err)
	}
	if e.NestHost != "" {
		if c.NestHost, err = classType(in, e.NestHost); err != nil {
			return nil, fmt.Errorf("nest_host: %w", err)
		}
	}
	if c.NestMembers, err = classTypes(in, e.NestMembers); err != nil {
		return nil, fmt.Errorf("nest_members: %w", err)
	}
	for _, me := range e.Methods {
		m, err := decodeMethod(in, t, &me)
		if err != nil {
			return nil, fmt.Errorf("method %s%s: %w", me.Name, me.Proto, err)
		}
		c.Methods = append(c.Methods, m)
	}
	for _, fe := range e.Fields {
		ref, err := in.Field(e.Type, fe.Name, fe.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fe.Name, err)
		}
		fflags, err := graph.ParseFlags(fe.Flags)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fe.Name, err)
		}
		c.Fields = append(c.Fields, &graph.FieldDef{Ref: ref, Flags: fflags, Annotations: fe.Annotations})
	}
	return c, nil
}

func decodeMethod(in *types.Interner, holder types.TypeID, e *methodEntry) (*graph.MethodDef, error) {
	ref, err := in.Method(in.Descriptor(holder), e.Name, e.Proto)
	if err != nil {
		return nil, err
	}
	flags, err := graph.ParseFlags(e.Flags)
	if err != nil {
		return nil, err
	}
	m := &graph.MethodDef{Ref: ref, Flags: flags, Annotations: e.Annotations}
	if len(e.Code) == 0 {
		return m, nil
	}
	if flags.IsAbstract() || flags.Has(graph.AccNative) {
		return nil, fmt.Errorf("%s method with code", flags)
	}
	ops := make([]graph.Op, 0, len(e.Code))
	for i, line := range e.Code {
		op, err := ParseOp(in, line)
		if err != nil {
			return nil, fmt.Errorf("code[%d]: %w", i, err)
		}
		ops = append(ops, op)
	}
	m.Code = &graph.Code{Ops: ops}
	return m, nil
}

func classType(in *types.Interner, desc string) (types.TypeID, error) {
	t, err := in.ParseType(strings.TrimSpace(desc))
	if err != nil {
		return types.NoTypeID, err
	}
	if tt := in.MustLookup(t); tt.Kind != types.KindClass {
		return types.NoTypeID, fmt.Errorf("%s is not a class type", desc)
	}
	return t, nil
}

func classTypes(in *types.Interner, descs []string) ([]types.TypeID, error) {
	if len(descs) == 0 {
		return nil, nil
	}
	out := make([]types.TypeID, 0, len(descs))
	for _, d := range descs {
		t, err := classType(in, d)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func rejectUndecoded(meta toml.MetaData) error {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}
	return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
}
