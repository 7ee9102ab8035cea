// Serializer encodes/decodes a Module to Machine Dialect's compiled
// module format, kept as close to the teacher's bytes.Buffer +
// encoding/binary idiom for length-prefixed framing, with a new magic
// number and a smaller, spec-defined layout in place of the teacher's
// own format.
package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// MagicNumber identifies a Machine Dialect compiled module.
const MagicNumber uint32 = 0xBEBECAFE

// FormatVersion is the wire format's version field.
const FormatVersion uint16 = 0x0001

// flagLittleEndian marks the module as little-endian encoded (bit 0 of
// the flags field); this implementation always writes little-endian.
const flagLittleEndian uint16 = 1

// ModuleType distinguishes a procedural module (0) from the reserved
// class-module kind (1), never emitted by this compiler.
const moduleTypeProcedural uint8 = 0

// Serialize encodes m into Machine Dialect's binary module format.
func Serialize(m *Module) []byte {
	var buf bytes.Buffer

	binary.Write(&buf, binary.LittleEndian, MagicNumber)
	binary.Write(&buf, binary.LittleEndian, FormatVersion)
	binary.Write(&buf, binary.LittleEndian, flagLittleEndian)
	buf.WriteByte(moduleTypeProcedural)

	writeString16(&buf, m.Name)

	binary.Write(&buf, binary.LittleEndian, uint32(len(m.Strings)))
	for _, s := range m.Strings {
		writeString32(&buf, s)
	}

	binary.Write(&buf, binary.LittleEndian, uint16(len(m.Constants)))
	for _, c := range m.Constants {
		writeConst(&buf, c)
	}

	binary.Write(&buf, binary.LittleEndian, uint16(len(m.Globals)))
	for _, g := range m.Globals {
		binary.Write(&buf, binary.LittleEndian, g.NameIdx)
		binary.Write(&buf, binary.LittleEndian, g.ConstIdx)
	}

	writeChunk(&buf, m.Main)

	binary.Write(&buf, binary.LittleEndian, uint16(len(m.Functions)))
	for _, fn := range m.Functions {
		writeChunk(&buf, fn)
	}

	return buf.Bytes()
}

func writeString16(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint16(len(s)))
	buf.WriteString(s)
}

func writeString32(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint32(len(s)))
	buf.WriteString(s)
}

func writeConst(buf *bytes.Buffer, c Const) {
	buf.WriteByte(byte(c.Tag))
	switch c.Tag {
	case ConstEmpty:
		// no payload
	case ConstInt:
		binary.Write(buf, binary.LittleEndian, c.Int)
	case ConstFloat:
		binary.Write(buf, binary.LittleEndian, c.Float)
	case ConstStringRef:
		binary.Write(buf, binary.LittleEndian, c.StringIdx)
	case ConstFunctionRef:
		binary.Write(buf, binary.LittleEndian, c.FunctionIdx)
	}
}

func writeChunk(buf *bytes.Buffer, c Chunk) {
	buf.WriteByte(c.Arity)
	binary.Write(buf, binary.LittleEndian, c.Locals)
	binary.Write(buf, binary.LittleEndian, uint32(len(c.Code)))
	buf.Write(c.Code)

	var lineBuf bytes.Buffer
	binary.Write(&lineBuf, binary.LittleEndian, uint32(len(c.LineInfo)))
	for _, r := range c.LineInfo {
		binary.Write(&lineBuf, binary.LittleEndian, r.StartPC)
		binary.Write(&lineBuf, binary.LittleEndian, r.Line)
		binary.Write(&lineBuf, binary.LittleEndian, r.Column)
	}
	binary.Write(buf, binary.LittleEndian, uint32(lineBuf.Len()))
	buf.Write(lineBuf.Bytes())
}

// Deserialize decodes a Machine Dialect compiled module.
func Deserialize(data []byte) (*Module, error) {
	r := bytes.NewReader(data)

	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if magic != MagicNumber {
		return nil, fmt.Errorf("bad magic number 0x%08X, want 0x%08X", magic, MagicNumber)
	}

	var version, flags uint16
	binary.Read(r, binary.LittleEndian, &version)
	binary.Read(r, binary.LittleEndian, &flags)

	var moduleType uint8
	binary.Read(r, binary.LittleEndian, &moduleType)

	m := &Module{}
	name, err := readString16(r)
	if err != nil {
		return nil, fmt.Errorf("reading module name: %w", err)
	}
	m.Name = name

	var stringCount uint32
	binary.Read(r, binary.LittleEndian, &stringCount)
	m.Strings = make([]string, stringCount)
	for i := range m.Strings {
		s, err := readString32(r)
		if err != nil {
			return nil, fmt.Errorf("reading string table entry %d: %w", i, err)
		}
		m.Strings[i] = s
	}

	var constCount uint16
	binary.Read(r, binary.LittleEndian, &constCount)
	m.Constants = make([]Const, constCount)
	for i := range m.Constants {
		c, err := readConst(r)
		if err != nil {
			return nil, fmt.Errorf("reading constant %d: %w", i, err)
		}
		m.Constants[i] = c
	}

	var globalCount uint16
	binary.Read(r, binary.LittleEndian, &globalCount)
	m.Globals = make([]Global, globalCount)
	for i := range m.Globals {
		binary.Read(r, binary.LittleEndian, &m.Globals[i].NameIdx)
		binary.Read(r, binary.LittleEndian, &m.Globals[i].ConstIdx)
	}

	main, err := readChunk(r)
	if err != nil {
		return nil, fmt.Errorf("reading main chunk: %w", err)
	}
	m.Main = main

	var fnCount uint16
	binary.Read(r, binary.LittleEndian, &fnCount)
	m.Functions = make([]Chunk, fnCount)
	for i := range m.Functions {
		fn, err := readChunk(r)
		if err != nil {
			return nil, fmt.Errorf("reading function chunk %d: %w", i, err)
		}
		m.Functions[i] = fn
	}

	return m, nil
}

func readString16(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readString32(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readConst(r io.Reader) (Const, error) {
	var tagByte [1]byte
	if _, err := io.ReadFull(r, tagByte[:]); err != nil {
		return Const{}, err
	}
	c := Const{Tag: ConstTag(tagByte[0])}
	switch c.Tag {
	case ConstEmpty:
	case ConstInt:
		if err := binary.Read(r, binary.LittleEndian, &c.Int); err != nil {
			return Const{}, err
		}
	case ConstFloat:
		if err := binary.Read(r, binary.LittleEndian, &c.Float); err != nil {
			return Const{}, err
		}
	case ConstStringRef:
		if err := binary.Read(r, binary.LittleEndian, &c.StringIdx); err != nil {
			return Const{}, err
		}
	case ConstFunctionRef:
		if err := binary.Read(r, binary.LittleEndian, &c.FunctionIdx); err != nil {
			return Const{}, err
		}
	default:
		return Const{}, fmt.Errorf("unknown constant tag %d", c.Tag)
	}
	return c, nil
}

func readChunk(r io.Reader) (Chunk, error) {
	var c Chunk
	var arity [1]byte
	if _, err := io.ReadFull(r, arity[:]); err != nil {
		return c, err
	}
	c.Arity = arity[0]

	if err := binary.Read(r, binary.LittleEndian, &c.Locals); err != nil {
		return c, err
	}

	var codeLen uint32
	if err := binary.Read(r, binary.LittleEndian, &codeLen); err != nil {
		return c, err
	}
	c.Code = make([]byte, codeLen)
	if _, err := io.ReadFull(r, c.Code); err != nil {
		return c, err
	}

	var lineLen uint32
	if err := binary.Read(r, binary.LittleEndian, &lineLen); err != nil {
		return c, err
	}
	lineBuf := make([]byte, lineLen)
	if _, err := io.ReadFull(r, lineBuf); err != nil {
		return c, err
	}
	lr := bytes.NewReader(lineBuf)
	var runCount uint32
	if err := binary.Read(lr, binary.LittleEndian, &runCount); err != nil {
		return c, err
	}
	c.LineInfo = make([]LineRun, runCount)
	for i := range c.LineInfo {
		binary.Read(lr, binary.LittleEndian, &c.LineInfo[i].StartPC)
		binary.Read(lr, binary.LittleEndian, &c.LineInfo[i].Line)
		binary.Read(lr, binary.LittleEndian, &c.LineInfo[i].Column)
	}

	return c, nil
}
