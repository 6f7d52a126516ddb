package model

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"shrinker/internal/invariant"
	"shrinker/internal/lens"
	"shrinker/internal/types"
)

// A step file lists lens steps in the order they are applied:
//
//	[[step]]
//	name = "merge-vertical"
//	remove_methods = ["La/Dead;->m()V"]
//
//	[[step.merge_types]]
//	into = "La/A;"
//	from = ["La/B;"]
//
//	[[step.move_method]]
//	from = "La/B;->m(I)V"
//	to = "La/A;->m$b()V"
//	removed_params = [0]
type stepsFile struct {
	Steps []stepEntry `toml:"step"`
}

type stepEntry struct {
	Name          string       `toml:"name"`
	MapTypes      []moveEntry  `toml:"map_type"`
	MergeTypes    []mergeEntry `toml:"merge_types"`
	RemoveTypes   []string     `toml:"remove_types"`
	MoveMethods   []methodMove `toml:"move_method"`
	MergeMethods  []mergeEntry `toml:"merge_methods"`
	RemoveMethods []string     `toml:"remove_methods"`
	MoveFields    []moveEntry  `toml:"move_field"`
	MergeFields   []mergeEntry `toml:"merge_fields"`
	RemoveFields  []string     `toml:"remove_fields"`
	HolderKinds   []holderKind `toml:"holder_kind"`
	InitClasses   []initClass  `toml:"init_class"`
}

type moveEntry struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

type mergeEntry struct {
	Into string   `toml:"into"`
	From []string `toml:"from"`
}

type methodMove struct {
	From          string   `toml:"from"`
	To            string   `toml:"to"`
	RemovedParams []int    `toml:"removed_params"`
	ExtraParams   []string `toml:"extra_params"`
	Return        string   `toml:"return"`
}

type holderKind struct {
	Type      string `toml:"type"`
	Interface bool   `toml:"interface"`
}

type initClass struct {
	Type  string `toml:"type"`
	Field string `toml:"field"`
}

// LoadSteps reads the steps in path.
func LoadSteps(in *types.Interner, path string) ([]*lens.Step, error) {
	var f stepsFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	steps, err := decodeSteps(in, &f, meta)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return steps, nil
}

// ParseSteps reads steps from TOML text.
func ParseSteps(in *types.Interner, text string) ([]*lens.Step, error) {
	var f stepsFile
	meta, err := toml.Decode(text, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return decodeSteps(in, &f, meta)
}

func decodeSteps(in *types.Interner, f *stepsFile, meta toml.MetaData) ([]*lens.Step, error) {
	if err := rejectUndecoded(meta); err != nil {
		return nil, err
	}
	steps := make([]*lens.Step, 0, len(f.Steps))
	for i := range f.Steps {
		name := f.Steps[i].Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}
		s, err := decodeStep(in, name, &f.Steps[i])
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", name, err)
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// decodeStep turns builder violations (a source mapped twice, mismatched
// prototypes) into errors: in a file they are user mistakes.
func decodeStep(in *types.Interner, name string, e *stepEntry) (_ *lens.Step, err error) {
	defer invariant.Recover(&err)
	b := lens.NewStep(in, name)

	for _, m := range e.MapTypes {
		from, to, err := typePair(in, m.From, m.To)
		if err != nil {
			return nil, fmt.Errorf("map_type: %w", err)
		}
		b.MapType(from, to)
	}
	for _, m := range e.MergeTypes {
		into, err := classType(in, m.Into)
		if err != nil {
			return nil, fmt.Errorf("merge_types: %w", err)
		}
		from, err := classTypes(in, m.From)
		if err != nil {
			return nil, fmt.Errorf("merge_types: %w", err)
		}
		b.MergeTypes(into, from...)
	}
	for _, d := range e.RemoveTypes {
		t, err := classType(in, d)
		if err != nil {
			return nil, fmt.Errorf("remove_types: %w", err)
		}
		b.RemoveType(t)
	}

	for _, m := range e.MoveMethods {
		from, err := in.ParseMethodRef(m.From)
		if err != nil {
			return nil, fmt.Errorf("move_method: %w", err)
		}
		to, err := in.ParseMethodRef(m.To)
		if err != nil {
			return nil, fmt.Errorf("move_method: %w", err)
		}
		change, err := protoChange(in, &m)
		if err != nil {
			return nil, fmt.Errorf("move_method %s: %w", m.From, err)
		}
		b.ChangeProto(from, to, change)
	}
	for _, m := range e.MergeMethods {
		into, err := in.ParseMethodRef(m.Into)
		if err != nil {
			return nil, fmt.Errorf("merge_methods: %w", err)
		}
		from := make([]types.MethodRef, 0, len(m.From))
		for _, s := range m.From {
			ref, err := in.ParseMethodRef(s)
			if err != nil {
				return nil, fmt.Errorf("merge_methods: %w", err)
			}
			from = append(from, ref)
		}
		b.MergeMethods(into, nil, from...)
	}
	for _, s := range e.RemoveMethods {
		ref, err := in.ParseMethodRef(s)
		if err != nil {
			return nil, fmt.Errorf("remove_methods: %w", err)
		}
		b.RemoveMethod(ref)
	}

	for _, m := range e.MoveFields {
		from, err := in.ParseFieldRef(m.From)
		if err != nil {
			return nil, fmt.Errorf("move_field: %w", err)
		}
		to, err := in.ParseFieldRef(m.To)
		if err != nil {
			return nil, fmt.Errorf("move_field: %w", err)
		}
		b.MoveField(from, to)
	}
	for _, m := range e.MergeFields {
		into, err := in.ParseFieldRef(m.Into)
		if err != nil {
			return nil, fmt.Errorf("merge_fields: %w", err)
		}
		from := make([]types.FieldRef, 0, len(m.From))
		for _, s := range m.From {
			ref, err := in.ParseFieldRef(s)
			if err != nil {
				return nil, fmt.Errorf("merge_fields: %w", err)
			}
			from = append(from, ref)
		}
		b.MergeFields(into, from...)
	}
	for _, s := range e.RemoveFields {
		ref, err := in.ParseFieldRef(s)
		if err != nil {
			return nil, fmt.Errorf("remove_fields: %w", err)
		}
		b.RemoveField(ref)
	}

	for _, h := range e.HolderKinds {
		t, err := classType(in, h.Type)
		if err != nil {
			return nil, fmt.Errorf("holder_kind: %w", err)
		}
		b.SetHolderKind(t, h.Interface)
	}
	for _, ic := range e.InitClasses {
		t, err := classType(in, ic.Type)
		if err != nil {
			return nil, fmt.Errorf("init_class: %w", err)
		}
		f, err := in.ParseFieldRef(ic.Field)
		if err != nil {
			return nil, fmt.Errorf("init_class: %w", err)
		}
		b.SetInitClassField(t, f)
	}
	return b.Build(), nil
}

func typePair(in *types.Interner, from, to string) (types.TypeID, types.TypeID, error) {
	f, err := classType(in, from)
	if err != nil {
		return types.NoTypeID, types.NoTypeID, err
	}
	t, err := classType(in, to)
	if err != nil {
		return types.NoTypeID, types.NoTypeID, err
	}
	return f, t, nil
}

func protoChange(in *types.Interner, m *methodMove) (lens.ProtoChange, error) {
	var c lens.ProtoChange
	c.RemovedParams = m.RemovedParams
	for _, d := range m.ExtraParams {
		t, err := in.ParseType(d)
		if err != nil {
			return lens.ProtoChange{}, fmt.Errorf("extra_params: %w", err)
		}
		c.ExtraParams = append(c.ExtraParams, t)
	}
	if m.Return != "" {
		t, err := in.ParseType(m.Return)
		if err != nil {
			return lens.ProtoChange{}, fmt.Errorf("return: %w", err)
		}
		c.Return = t
	}
	return c, nil
}
