package graph

import "shrinker/internal/types"

// NewObjectClass returns the library definition of java/lang/Object with
// the members resolution and dispatch care about.
func NewObjectClass(in *types.Interner) *ClassDef {
	obj := in.Builtins().Object
	c := NewClass(obj, Library, AccPublic)
	add := func(name, proto string, flags AccessFlags) {
		c.Methods = append(c.Methods, &MethodDef{
			Ref:   types.MethodRef{Holder: obj, Name: in.Intern(name), Proto: in.MustProto(proto)},
			Flags: flags,
		})
	}
	add("<init>", "()V", AccPublic|AccConstructor)
	add("equals", "(Ljava/lang/Object;)Z", AccPublic)
	add("hashCode", "()I", AccPublic|AccNative)
	add("toString", "()Ljava/lang/String;", AccPublic)
	add("getClass", "()Ljava/lang/Class;", AccPublic|AccFinal|AccNative)
	add("clone", "()Ljava/lang/Object;", AccProtected|AccNative)
	add("finalize", "()V", AccProtected)
	return c
}
