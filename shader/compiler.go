package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

// ErrCompile is returned when a program variant fails to compile.
var ErrCompile = errors.New("shader: compile failed")

// Compiler turns preprocessed WGSL into SPIR-V words.
type Compiler interface {
	Compile(name, source string) ([]uint32, error)
}

// CompilerFunc adapts a function to the Compiler interface.
type CompilerFunc func(name, source string) ([]uint32, error)

// Compile calls f.
func (f CompilerFunc) Compile(name, source string) ([]uint32, error) { return f(name, source) }

// NagaCompiler compiles WGSL with naga.
type NagaCompiler struct{}

// Compile compiles source to SPIR-V.
func (NagaCompiler) Compile(name, source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompile, name, err)
	}
	return wordsFromBytes(spirvBytes), nil
}

// wordsFromBytes converts little-endian SPIR-V bytes to 32-bit words.
func wordsFromBytes(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words
}
