package bytecode

// ConstTag selects a constant pool entry's payload shape.
type ConstTag byte

const (
	ConstEmpty ConstTag = iota
	ConstInt
	ConstFloat
	ConstStringRef
	ConstFunctionRef
)

// Const is one constant-pool entry. Exactly one payload field is valid,
// selected by Tag.
type Const struct {
	Tag         ConstTag
	Int         int64
	Float       float64
	StringIdx   uint32 // ConstStringRef: index into Module.Strings
	FunctionIdx uint16 // ConstFunctionRef: index into Module.Functions
}

// Global is a module-level name bound to a constant-pool entry.
type Global struct {
	NameIdx  uint32 // index into Module.Strings
	ConstIdx uint16 // index into Module.Constants
}

// Chunk is one function's compiled body: a flat byte-coded instruction
// stream plus its local-slot count and optional line-info for runtime
// diagnostics.
type Chunk struct {
	Arity    uint8
	Locals   uint16
	Code     []byte
	LineInfo []LineRun
}

// LineRun is a run-length (pc-range → line/column) entry used to map a
// faulting pc back to a source position without storing one entry per
// instruction.
type LineRun struct {
	StartPC uint32
	Line    uint32
	Column  uint32
}

// LineFor resolves the source position for pc, or the zero Position if
// no run covers it (possible for synthetic/compiler-inserted code).
func (c *Chunk) LineFor(pc int) (line, col int) {
	line, col = 0, 0
	for _, r := range c.LineInfo {
		if uint32(pc) >= r.StartPC {
			line, col = int(r.Line), int(r.Column)
		} else {
			break
		}
	}
	return line, col
}

// Module is a fully compiled Machine Dialect program: header metadata,
// string/constant pools, module-level globals, and the main chunk plus
// every Action/Interaction's chunk.
type Module struct {
	Name      string
	Strings   []string
	Constants []Const
	Globals   []Global
	Main      Chunk
	Functions []Chunk

	// FunctionNames parallels Functions by index; not part of the wire
	// format's per-chunk data but needed to resolve CALL's callee name
	// for disassembly and to name the VM's call frames and runtime errors.
	FunctionNames []string
}
