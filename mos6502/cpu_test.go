package mos6502

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// flatBus is a 64 KiB flat memory space standing in for the real bus
// in processor-only tests. Its NMI line is controlled directly by
// tests that need to exercise interrupt servicing.
type flatBus struct {
	mem    [65536]byte
	cycles int
	nmi    bool
}

func (b *flatBus) Read(addr uint16) uint8     { return b.mem[addr] }
func (b *flatBus) Write(addr uint16, v uint8) { b.mem[addr] = v }
func (b *flatBus) Peek(addr uint16) uint8     { return b.mem[addr] }
func (b *flatBus) Tick(c uint8)               { b.cycles += int(c) }
func (b *flatBus) NMIPending() bool           { return b.nmi }
func (b *flatBus) AcknowledgeNMI()            { b.nmi = false }

func newTestCPU(resetVector uint16, program []byte, at uint16) (*CPU, *flatBus) {
	bus := &flatBus{}
	bus.mem[vectorReset] = uint8(resetVector)
	bus.mem[vectorReset+1] = uint8(resetVector >> 8)
	copy(bus.mem[at:], program)
	return New(bus), bus
}

func runUntilBRK(c *CPU, bus *flatBus) {
	for i := 0; i < 10000; i++ {
		pc := c.PC
		c.Step()
		if bus.mem[pc] == 0x00 {
			return
		}
	}
}

func TestLDAFromZeroPage(t *testing.T) {
	c, bus := newTestCPU(0x8000, []byte{0xA5, 0x10, 0x00}, 0x8000)
	bus.mem[0x10] = 0x55
	runUntilBRK(c, bus)
	assert.Equal(t, uint8(0x55), c.A)
	assert.False(t, c.flag(FlagZ))
	assert.False(t, c.flag(FlagN))
}

func TestADCOverflow(t *testing.T) {
	c, bus := newTestCPU(0x8000, []byte{0xA9, 0x7F, 0x18, 0x69, 0x01, 0x00}, 0x8000)
	runUntilBRK(c, bus)
	assert.Equal(t, uint8(0x80), c.A)
	assert.True(t, c.flag(FlagV))
	assert.True(t, c.flag(FlagN))
	assert.False(t, c.flag(FlagC))
	assert.False(t, c.flag(FlagZ))
}

func TestBCCPageCrossPenalty(t *testing.T) {
	c, bus := newTestCPU(0x8000, []byte{0x18, 0x90, 0x01, 0xEA, 0x00}, 0x8000)
	c.Step() // CLC
	before := bus.cycles
	c.Step() // BCC +1, taken, lands on the BRK at 0x8004 (skips the NOP)
	assert.Equal(t, uint16(0x8004), c.PC)
	assert.Equal(t, 3, bus.cycles-before) // base 2 + 1 taken, no page cross
}

func TestIndirectJMPPageBug(t *testing.T) {
	c, bus := newTestCPU(0x8000, []byte{0x6C, 0xFF, 0x10}, 0x8000)
	bus.mem[0x10FF] = 0x80
	bus.mem[0x1000] = 0x10 // same-page wraparound fetch, not 0x1100
	bus.mem[0x1100] = 0x01
	c.Step()
	assert.Equal(t, uint16(0x1080), c.PC)
}

func TestJSRThenRTS(t *testing.T) {
	c, bus := newTestCPU(0x8000, []byte{0x20, 0x00, 0x90}, 0x8000)
	bus.mem[0x9000] = 0x60 // RTS
	c.Step()               // JSR
	assert.Equal(t, uint16(0x9000), c.PC)
	c.Step() // RTS
	assert.Equal(t, uint16(0x8003), c.PC)
}

func TestBRKActsAsIRQAndAdvancesPCByTwo(t *testing.T) {
	c, bus := newTestCPU(0x8000, []byte{0x00}, 0x8000)
	bus.mem[vectorIRQ] = 0x00
	bus.mem[vectorIRQ+1] = 0x90
	c.Step()
	assert.Equal(t, uint16(0x9000), c.PC)
	assert.True(t, c.flag(FlagI))
	pushedStatus := bus.mem[stackBase+uint16(c.SP)+1]
	assert.True(t, pushedStatus&FlagB != 0)
	retAddr := uint16(bus.mem[stackBase+uint16(c.SP)+2]) | uint16(bus.mem[stackBase+uint16(c.SP)+3])<<8
	assert.Equal(t, uint16(0x8002), retAddr)
}

func TestNMIClearsBRKFlagAndCostsTwoExtraCycles(t *testing.T) {
	c, bus := newTestCPU(0x8000, []byte{0xEA}, 0x8000)
	bus.mem[vectorNMI] = 0x00
	bus.mem[vectorNMI+1] = 0xA0
	bus.nmi = true
	before := bus.cycles
	c.Step()
	assert.Equal(t, uint16(0xA000), c.PC)
	assert.Equal(t, 2, bus.cycles-before)
	pushedStatus := bus.mem[stackBase+uint16(c.SP)+1]
	assert.False(t, pushedStatus&FlagB != 0)
}

func TestResetState(t *testing.T) {
	c, _ := newTestCPU(0xC000, nil, 0xC000)
	assert.Equal(t, uint8(0), c.A)
	assert.Equal(t, uint8(0), c.X)
	assert.Equal(t, uint8(0), c.Y)
	assert.Equal(t, uint8(0xFF), c.SP)
	assert.Equal(t, flag5, c.Status)
	assert.Equal(t, uint16(0xC000), c.PC)
}

func TestCycleCountsForAddressingModes(t *testing.T) {
	c, bus := newTestCPU(0x8000, []byte{0xA9, 0x01}, 0x8000)
	before := bus.cycles
	c.Step()
	assert.Equal(t, 2, bus.cycles-before)

	c2, bus2 := newTestCPU(0x8000, []byte{0xA2, 0xFF, 0xBD, 0x01, 0x10}, 0x8000)
	c2.Step() // LDX #$FF
	before2 := bus2.cycles
	c2.Step() // LDA $1001,X -> $1100, crosses page
	assert.Equal(t, 5, bus2.cycles-before2)
}

func TestCompareSetsCarryWhenRegisterGreaterOrEqual(t *testing.T) {
	c, bus := newTestCPU(0x8000, []byte{0xA9, 0x10, 0xC9, 0x05}, 0x8000)
	c.Step()
	c.Step()
	assert.True(t, c.flag(FlagC))
	assert.False(t, c.flag(FlagZ))
	_ = bus
}

func TestPHPSetsBreakBitAndPLPClearsIt(t *testing.T) {
	c, bus := newTestCPU(0x8000, []byte{0x08, 0x28}, 0x8000)
	c.Step() // PHP
	pushed := bus.mem[stackBase+uint16(c.SP)+1]
	assert.True(t, pushed&FlagB != 0)
	c.Step() // PLP
	assert.False(t, c.flag(FlagB))
}
