package graph

import (
	"fmt"
	"strings"
)

// AccessFlags mirrors class-file access flags for classes and members.
type AccessFlags uint32

const (
	AccPublic AccessFlags = 1 << iota
	AccPrivate
	AccProtected
	AccStatic
	AccFinal
	AccSynchronized
	AccBridge
	AccVarargs
	AccNative
	AccInterface
	AccAbstract
	AccSynthetic
	AccAnnotation
	AccEnum
	AccConstructor
)

var flagNames = []struct {
	flag AccessFlags
	name string
}{
	{AccPublic, "public"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccFinal, "final"},
	{AccSynchronized, "synchronized"},
	{AccBridge, "bridge"},
	{AccVarargs, "varargs"},
	{AccNative, "native"},
	{AccInterface, "interface"},
	{AccAbstract, "abstract"},
	{AccSynthetic, "synthetic"},
	{AccAnnotation, "annotation"},
	{AccEnum, "enum"},
	{AccConstructor, "constructor"},
}

// ParseFlags combines flag names such as "public", "abstract".
func ParseFlags(names []string) (AccessFlags, error) {
	var out AccessFlags
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		found := false
		for _, fn := range flagNames {
			if fn.name == n {
				out |= fn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown access flag %q", n)
		}
	}
	if out.Has(AccPublic|AccPrivate) || out.Has(AccPublic|AccProtected) || out.Has(AccPrivate|AccProtected) {
		return 0, fmt.Errorf("conflicting visibility flags %v", names)
	}
	return out, nil
}

// Has reports whether all bits of x are set.
func (f AccessFlags) Has(x AccessFlags) bool { return f&x == x }

func (f AccessFlags) IsPublic() bool    { return f.Has(AccPublic) }
func (f AccessFlags) IsPrivate() bool   { return f.Has(AccPrivate) }
func (f AccessFlags) IsProtected() bool { return f.Has(AccProtected) }
func (f AccessFlags) IsStatic() bool    { return f.Has(AccStatic) }
func (f AccessFlags) IsAbstract() bool  { return f.Has(AccAbstract) }
func (f AccessFlags) IsSynthetic() bool { return f.Has(AccSynthetic) }
func (f AccessFlags) IsInterface() bool { return f.Has(AccInterface) }
func (f AccessFlags) IsFinal() bool     { return f.Has(AccFinal) }

// IsPackagePrivate reports the absence of all visibility flags.
func (f AccessFlags) IsPackagePrivate() bool {
	return f&(AccPublic|AccPrivate|AccProtected) == 0
}

func (f AccessFlags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, " ")
}

// Flagged is implemented by every definition that carries access flags.
type Flagged interface {
	AccessFlags() AccessFlags
}
