// Package mos6502 implements an instruction-accurate 6502 processor
// core: the official opcode set, per-instruction cycle accounting,
// and the addressing-mode and interrupt semantics a cycle-driven
// picture processor depends on.
package mos6502

import (
	"fmt"
	"reflect"
)

const (
	FlagC uint8 = 1 << 0
	FlagZ uint8 = 1 << 1
	FlagI uint8 = 1 << 2
	FlagD uint8 = 1 << 3
	FlagB uint8 = 1 << 4
	flag5 uint8 = 1 << 5 // unused, conventionally 1 on every push
	FlagV uint8 = 1 << 6
	FlagN uint8 = 1 << 7
)

const (
	vectorNMI   uint16 = 0xFFFA
	vectorReset uint16 = 0xFFFC
	vectorIRQ   uint16 = 0xFFFE
	stackBase   uint16 = 0x0100
)

// CPU is processor register state. It carries no cycle counter of its
// own: timing lives on the Bus, which the processor ticks once per
// instruction (and once more per interrupt serviced).
type CPU struct {
	A, X, Y uint8
	PC      uint16
	SP      uint8
	Status  uint8

	bus Bus

	instrPC     uint16         // PC at the start of the instruction currently executing
	extraCycles uint8          // branch-taken / branch-page-cross accumulator
	curMode     AddressingMode // addressing mode of the instruction being dispatched

	// TraceHook, if set, is invoked once per instruction before the
	// non-maskable-interrupt poll. Used by the debug trace formatter
	// and by tests that want to observe every step.
	TraceHook func(*CPU)
}

// New constructs a processor wired to bus and resets it.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.Reset()
	return c
}

// Reset restores power-on register state and loads PC from the reset
// vector.
func (c *CPU) Reset() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFF
	c.Status = flag5
	c.PC = c.readWord(vectorReset)
	c.extraCycles = 0
}

func (c *CPU) setFlag(mask uint8, on bool) {
	if on {
		c.Status |= mask
	} else {
		c.Status &^= mask
	}
}

func (c *CPU) flag(mask uint8) bool { return c.Status&mask != 0 }

func (c *CPU) setZN(v uint8) {
	c.setFlag(FlagZ, v == 0)
	c.setFlag(FlagN, v&0x80 != 0)
}

func (c *CPU) push(v uint8) {
	c.bus.Write(stackBase+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pull() uint8 {
	c.SP++
	return c.bus.Read(stackBase + uint16(c.SP))
}

func (c *CPU) pushWord(v uint16) {
	c.push(uint8(v >> 8))
	c.push(uint8(v))
}

func (c *CPU) pullWord() uint16 {
	lo := c.pull()
	hi := c.pull()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) readWord(addr uint16) uint16 {
	lo := c.bus.Read(addr)
	hi := c.bus.Read(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// Step executes exactly one instruction (or, if a non-maskable
// interrupt is pending, services the interrupt instead) and advances
// bus time by its cost.
func (c *CPU) Step() {
	if c.TraceHook != nil {
		c.TraceHook(c)
	}

	if c.bus.NMIPending() {
		c.bus.AcknowledgeNMI()
		c.serviceInterrupt(vectorNMI, false)
		c.bus.Tick(2)
		return
	}

	c.instrPC = c.PC
	opcode := c.bus.Read(c.PC)
	c.PC++

	inst := opcodes[opcode]
	if inst.Mnemonic == "" {
		panic(fmt.Sprintf("mos6502: unimplemented opcode 0x%02X at PC 0x%04X", opcode, c.instrPC))
	}

	addr, pageCrossed := c.resolveOperand(inst.Mode)

	c.extraCycles = 0
	c.curMode = inst.Mode
	pcBefore := c.PC
	c.dispatch(inst.Mnemonic, addr)

	cycles := inst.Cycles
	if pageCrossed && inst.PageCross {
		cycles++
	}
	cycles += c.extraCycles
	c.bus.Tick(cycles)

	if c.PC == pcBefore {
		c.PC += uint16(inst.Length) - 1
	}
}

// dispatch invokes the semantic action named by mnemonic. Every
// semantic method has the signature func(*CPU, uint16); reflection
// keeps the opcode table free of function-pointer boilerplate.
func (c *CPU) dispatch(mnemonic string, addr uint16) {
	m := reflect.ValueOf(c).MethodByName(mnemonic)
	m.Call([]reflect.Value{reflect.ValueOf(addr)})
}

// resolveOperand computes the effective address for mode without
// mutating PC; PC is advanced afterward by Step based on instruction
// length, unless the semantic action overrode it.
func (c *CPU) resolveOperand(mode AddressingMode) (addr uint16, pageCrossed bool) {
	switch mode {
	case Implicit, Accumulator:
		return 0, false
	case Immediate:
		return c.PC, false
	case ZeroPage:
		return uint16(c.bus.Read(c.PC)), false
	case ZeroPageX:
		return uint16(c.bus.Read(c.PC) + c.X), false
	case ZeroPageY:
		return uint16(c.bus.Read(c.PC) + c.Y), false
	case Relative:
		offset := int8(c.bus.Read(c.PC))
		base := c.PC + 1
		target := uint16(int32(base) + int32(offset))
		return target, (target & 0xFF00) != (base & 0xFF00)
	case Absolute:
		return c.readWord(c.PC), false
	case AbsoluteX:
		base := c.readWord(c.PC)
		addr = base + uint16(c.X)
		return addr, (addr & 0xFF00) != (base & 0xFF00)
	case AbsoluteY:
		base := c.readWord(c.PC)
		addr = base + uint16(c.Y)
		return addr, (addr & 0xFF00) != (base & 0xFF00)
	case Indirect:
		ptr := c.readWord(c.PC)
		lo := c.bus.Read(ptr)
		hiAddr := ptr + 1
		if ptr&0x00FF == 0x00FF {
			hiAddr = ptr & 0xFF00 // reproduces the documented page-wrap bug
		}
		hi := c.bus.Read(hiAddr)
		return uint16(hi)<<8 | uint16(lo), false
	case IndirectX:
		zp := c.bus.Read(c.PC) + c.X
		lo := c.bus.Read(uint16(zp))
		hi := c.bus.Read(uint16(zp + 1))
		return uint16(hi)<<8 | uint16(lo), false
	case IndirectY:
		zp := c.bus.Read(c.PC)
		lo := c.bus.Read(uint16(zp))
		hi := c.bus.Read(uint16(zp + 1))
		base := uint16(hi)<<8 | uint16(lo)
		addr = base + uint16(c.Y)
		return addr, (addr & 0xFF00) != (base & 0xFF00)
	default:
		return 0, false
	}
}

// serviceInterrupt pushes PC and status and loads PC from vector.
// brk distinguishes BRK (bit B set in the pushed status) from NMI
// (B cleared).
func (c *CPU) serviceInterrupt(vector uint16, brk bool) {
	c.pushWord(c.PC)
	status := c.Status | flag5
	if brk {
		status |= FlagB
	} else {
		status &^= FlagB
	}
	c.push(status)
	c.setFlag(FlagI, true)
	c.PC = c.readWord(vector)
}
