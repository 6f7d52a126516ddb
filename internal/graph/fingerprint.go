package graph

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"shrinker/internal/types"
)

// Interned ids depend on interning order, so the fingerprint records
// descriptors instead.
type fingerprintClass struct {
	Type        string              `msgpack:"t"`
	Provenance  uint8               `msgpack:"p"`
	Flags       uint32              `msgpack:"f"`
	Super       string              `msgpack:"s,omitempty"`
	Interfaces  []string            `msgpack:"i,omitempty"`
	NestHost    string              `msgpack:"nh,omitempty"`
	NestMembers []string            `msgpack:"nm,omitempty"`
	Fields      []fingerprintMember `msgpack:"fl,omitempty"`
	Methods     []fingerprintMember `msgpack:"ml,omitempty"`
}

type fingerprintMember struct {
	Ref   string   `msgpack:"r"`
	Flags uint32   `msgpack:"f"`
	Code  []string `msgpack:"c,omitempty"`
}

// Fingerprint hashes the graph contents. Two graphs with the same classes,
// members and code have the same fingerprint regardless of interning order
// or worker scheduling. The version is not part of the hash.
func (g *Graph) Fingerprint() (string, error) {
	g.checkLive("Fingerprint")
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	for _, c := range g.Classes() {
		if err := enc.Encode(g.fingerprintOf(c)); err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", g.in.Descriptor(c.Type), err)
		}
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

func (g *Graph) fingerprintOf(c *ClassDef) fingerprintClass {
	in := g.in
	fc := fingerprintClass{
		Type:       in.Descriptor(c.Type),
		Provenance: uint8(c.provenance),
		Flags:      uint32(c.Flags),
	}
	if c.Super != types.NoTypeID {
		fc.Super = in.Descriptor(c.Super)
	}
	for _, i := range c.Interfaces {
		fc.Interfaces = append(fc.Interfaces, in.Descriptor(i))
	}
	if c.NestHost != types.NoTypeID {
		fc.NestHost = in.Descriptor(c.NestHost)
	}
	for _, m := range c.NestMembers {
		fc.NestMembers = append(fc.NestMembers, in.Descriptor(m))
	}
	for _, f := range c.Fields {
		fc.Fields = append(fc.Fields, fingerprintMember{Ref: in.FieldString(f.Ref), Flags: uint32(f.Flags)})
	}
	for _, m := range c.Methods {
		fm := fingerprintMember{Ref: in.MethodString(m.Ref), Flags: uint32(m.Flags)}
		if m.Code != nil {
			for _, op := range m.Code.Ops {
				fm.Code = append(fm.Code, FormatOp(in, op))
			}
		}
		fc.Methods = append(fc.Methods, fm)
	}
	return fc
}

// FormatOp renders op in the textual model syntax.
func FormatOp(in *types.Interner, op Op) string {
	switch op.Kind {
	case OpConstClass, OpCheckCast, OpInstanceOf, OpInitClass, OpNewInstance:
		return op.Kind.String() + " " + in.Descriptor(op.Type)
	case OpStaticGet, OpStaticPut, OpInstanceGet, OpInstancePut:
		return op.Kind.String() + " " + in.FieldString(op.Field)
	case OpLambda:
		if op.Lambda == nil {
			return op.Kind.String()
		}
		s := op.Kind.String()
		for _, i := range op.Lambda.Interfaces {
			s += " " + in.Descriptor(i)
		}
		return s + " " + in.String(op.Lambda.Name) + in.ProtoDescriptor(op.Lambda.Proto) + " " + in.MethodString(op.Lambda.Impl)
	default:
		return op.Kind.String() + " " + in.MethodString(op.Method)
	}
}
