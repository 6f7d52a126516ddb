package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Linking outcomes observed while collecting uses.
	LnkInfo                    Code = 1000
	LnkClassNotFound           Code = 1001
	LnkNoSuchMethod            Code = 1002
	LnkNoSuchField             Code = 1003
	LnkIllegalAccess           Code = 1004
	LnkIncompatibleClassChange Code = 1005
	LnkAmbiguousDefault        Code = 1006
	LnkPrivateNestMate         Code = 1007

	// Program model problems found while building a graph.
	GraphInfo               Code = 2000
	GraphDuplicateClass     Code = 2001
	GraphMissingSuper       Code = 2002
	GraphMissingInterface   Code = 2003
	GraphDuplicateMember    Code = 2004
	GraphNestHostMismatch   Code = 2005
	GraphLibraryExtendsUser Code = 2006

	// Dispatch.
	DispInfo          Code = 3000
	DispUnknownTarget Code = 3001

	// I/O.
	IOLoadFileError Code = 4001

	// Observability.
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:                "Unknown error",
	LnkInfo:                    "Linking information",
	LnkClassNotFound:           "Referenced class is not defined",
	LnkNoSuchMethod:            "Method reference does not resolve",
	LnkNoSuchField:             "Field reference does not resolve",
	LnkIllegalAccess:           "Resolved member is not accessible from the context",
	LnkIncompatibleClassChange: "Reference kind does not match the resolved member",
	LnkAmbiguousDefault:        "Several default methods are maximally specific",
	LnkPrivateNestMate:         "Private member of a nest mate reached through another holder",
	GraphInfo:                  "Program model information",
	GraphDuplicateClass:        "Class is defined more than once",
	GraphMissingSuper:          "Super class is not defined",
	GraphMissingInterface:      "Implemented interface is not defined",
	GraphDuplicateMember:       "Member is declared more than once",
	GraphNestHostMismatch:      "Nest host does not list the class as a member",
	GraphLibraryExtendsUser:    "Library class extends a non-library class",
	DispInfo:                   "Dispatch information",
	DispUnknownTarget:          "Dispatch target cannot be determined",
	IOLoadFileError:            "I/O error",
	ObsInfo:                    "Observability information",
	ObsTimings:                 "Pass timings",
}

// ID renders the stable short identifier, e.g. "LNK1002".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LNK%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("GRF%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("DSP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
