// Package mappers implements the cartridge mapper abstraction:
// processor-side and picture-processor-side read/write, plus the
// mapper's (possibly runtime-overridden) nametable mirroring mode.
package mappers

import (
	"fmt"

	"github.com/tnnz/nesgo/nesrom"
)

// Mapper is the capability set a cartridge mapper exposes to the bus
// and the picture processor: processor reads/writes of cartridge
// space (0x6000-0xFFFF), picture-processor reads/writes of pattern
// memory (0x0000-0x1FFF), and the mirroring mode currently in effect.
type Mapper interface {
	CPURead(addr uint16) uint8
	CPUWrite(addr uint16, val uint8)
	PPURead(addr uint16) uint8
	PPUWrite(addr uint16, val uint8)
	Mirroring() nesrom.Mirroring
}

// Factory builds a Mapper for a decoded cartridge. Registered per
// mapper id by each variant's init().
type Factory func(rom *nesrom.ROM) Mapper

var registry = map[uint8]Factory{}

// Register associates a mapper id with a Factory. Called from the
// init() of each mapper implementation file.
func Register(id uint8, f Factory) {
	if _, ok := registry[id]; ok {
		panic(fmt.Sprintf("mappers: id %d already registered", id))
	}
	registry[id] = f
}

// New builds the mapper a cartridge declares, or an error if this
// core doesn't implement that mapper id.
func New(rom *nesrom.ROM) (Mapper, error) {
	f, ok := registry[rom.MapperID]
	if !ok {
		return nil, fmt.Errorf("mappers: unsupported mapper id %d", rom.MapperID)
	}
	return f(rom), nil
}
