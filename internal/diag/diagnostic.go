package diag

// Location names the identity a diagnostic is about. Identities are
// rendered by the producer, which owns the interner.
type Location struct {
	// Subject is the class, method or field reference, e.g. "LA;->m()V".
	Subject string
	// Context is the method or class the subject was observed from.
	Context string
}

func (l Location) String() string {
	if l.Context == "" {
		return l.Subject
	}
	return l.Subject + " @ " + l.Context
}

type Note struct {
	Location Location
	Msg      string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}

// New builds a diagnostic without notes.
func New(sev Severity, code Code, primary Location, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Primary: primary, Message: msg}
}

// WithNote returns d with an additional note.
func (d Diagnostic) WithNote(loc Location, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Location: loc, Msg: msg})
	return d
}

func (d Diagnostic) String() string {
	return d.Severity.String() + " " + d.Code.ID() + " " + d.Primary.String() + ": " + d.Message
}
