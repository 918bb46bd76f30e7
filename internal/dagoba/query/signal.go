package query

// SignalKind tags the value a pipe hands back to the VM.
type SignalKind uint8

const (
	// KindEmpty: no output and no request for input. The VM moves on.
	KindEmpty SignalKind = iota
	// KindPull asks the previous step for more input.
	KindPull
	// KindDone marks the step exhausted for the current run.
	KindDone
	// KindEmit carries a gremlin to the next step.
	KindEmit
)

func (k SignalKind) String() string {
	switch k {
	case KindPull:
		return "pull"
	case KindDone:
		return "done"
	case KindEmit:
		return "emit"
	default:
		return "empty"
	}
}

// Signal is what a pipe returns from one activation.
type Signal struct {
	Kind    SignalKind
	Gremlin *Gremlin
}

var (
	Empty = Signal{Kind: KindEmpty}
	Pull  = Signal{Kind: KindPull}
	Done  = Signal{Kind: KindDone}
)

// Emit wraps a gremlin for the next step. A nil gremlin is Empty.
func Emit(g *Gremlin) Signal {
	if g == nil {
		return Empty
	}
	return Signal{Kind: KindEmit, Gremlin: g}
}
