package ramdisk

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
)

// Emitter writes the assembler unit in a single forward pass.
//
// Layout:
//
//	.global ramdisk_path_array          header
//	...
//	file0_data:                         per entry, in index order
//	.incbin "/abs/root/a.txt"
//	file0_end:
//	.byte 0
//	path0:                              path strings
//	.string "a.txt"
//	ramdisk_path_array:                 .word path0 ...
//	ramdisk_file_data_array:            .word file0_data ...
//	ramdisk_file_size_array:            .word (file0_end - file0_data) ...
//	ramdisk_num:                        .word 0x1
//
// The trailing .byte 0 lies outside [file_data, file_end), so sizes exclude it.
type Emitter struct {
	w       *bufio.Writer
	word    string
	policy  EscapePolicy
	onEntry func(FileEntry)

	entries []FileEntry
	paths   []string // escaped literals, index order

	state emitState
	err   error // sticky write error
}

type emitState int

const (
	stateNew emitState = iota
	stateOpen
	stateDone
)

// NewEmitter returns an Emitter writing to w.
func NewEmitter(w io.Writer, opts ...EmitOption) *Emitter {
	e := &Emitter{
		w:      bufio.NewWriter(w),
		word:   DefaultWordDirective,
		policy: DefaultEscapePolicy,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Begin writes the .global declarations.
func (e *Emitter) Begin() error {
	if e.state != stateNew {
		return errors.New("emitter already started")
	}
	if e.word == "" {
		return errors.New("empty word directive")
	}
	policy, err := ParseEscapePolicy(string(e.policy))
	if err != nil {
		return err
	}
	e.policy = policy
	e.state = stateOpen
	for _, sym := range []string{PathArraySymbol, DataArraySymbol, SizeArraySymbol, CountSymbol} {
		e.linef(".global %s", sym)
	}
	return e.err
}

// Add writes the embedding block for one entry. Entries must arrive in index
// order starting at 0. Nothing is written when the entry's names are rejected
// by the escape policy.
func (e *Emitter) Add(entry FileEntry) error {
	if e.state != stateOpen {
		return errors.New("emitter not open")
	}
	if entry.Index != len(e.entries) {
		return fmt.Errorf("entry %s has index %d, want %d", entry.RelPath, entry.Index, len(e.entries))
	}

	name, err := e.policy.Literal(entry.RelPath)
	if err != nil {
		return err
	}
	include, err := e.policy.Literal(filepath.ToSlash(entry.AbsPath))
	if err != nil {
		return fmt.Errorf("include path of %s: %w", entry.RelPath, err)
	}

	i := entry.Index
	e.linef("%s:", DataLabel(i))
	e.linef(".incbin \"%s\"", include)
	e.linef("%s:", EndLabel(i))
	e.linef(".byte 0")
	if e.err != nil {
		return e.err
	}

	e.entries = append(e.entries, entry)
	e.paths = append(e.paths, name)
	if e.onEntry != nil {
		e.onEntry(entry)
	}
	return nil
}

// Finish writes the path strings, the three tables and the count, then
// flushes. It returns the image described by the tables.
func (e *Emitter) Finish() (*Image, error) {
	if e.state != stateOpen {
		return nil, errors.New("emitter not open")
	}
	e.state = stateDone

	for i, name := range e.paths {
		e.linef("%s:", PathLabel(i))
		e.linef(".string \"%s\"", name)
	}

	e.linef("%s:", PathArraySymbol)
	for i := range e.entries {
		e.linef("%s %s", e.word, PathLabel(i))
	}
	e.linef("%s:", DataArraySymbol)
	for i := range e.entries {
		e.linef("%s %s", e.word, DataLabel(i))
	}
	e.linef("%s:", SizeArraySymbol)
	for i := range e.entries {
		e.linef("%s (%s - %s)", e.word, EndLabel(i), DataLabel(i))
	}
	e.linef("%s:", CountSymbol)
	e.linef("%s %#x", e.word, len(e.entries))

	if e.err != nil {
		return nil, e.err
	}
	if err := e.w.Flush(); err != nil {
		return nil, err
	}
	return &Image{Entries: e.entries}, nil
}

func (e *Emitter) linef(format string, args ...any) {
	if e.err != nil {
		return
	}
	if _, err := fmt.Fprintf(e.w, format, args...); err != nil {
		e.err = err
		return
	}
	e.err = e.w.WriteByte('\n')
}

// Emit writes a complete unit for every file the walker yields.
func Emit(out io.Writer, w *Walker, opts ...EmitOption) (*Image, error) {
	e := NewEmitter(out, opts...)
	if err := e.Begin(); err != nil {
		return nil, err
	}
	if err := w.Walk(e.Add); err != nil {
		return nil, err
	}
	return e.Finish()
}
