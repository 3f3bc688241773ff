// Package trace formats one human-readable line per executed
// instruction, for --debug runs and for the debugger's scrollback.
// Every byte it reads comes through a non-mutating Peek, so producing
// a trace line never perturbs emulated state.
package trace

import (
	"fmt"
	"strings"

	"github.com/tnnz/nesgo/mos6502"
)

// Peeker is the non-mutating memory surface a trace line is built
// from. console.Bus satisfies this directly.
type Peeker interface {
	Peek(addr uint16) uint8
}

// FromCPU is the usual entry point: render the trace line for c's
// current PC, reading operands through mem (normally the same bus c
// runs against) and reporting the picture processor's clock.
func FromCPU(mem Peeker, c *mos6502.CPU, scanline, dot int) string {
	return Line(mem, c.A, c.X, c.Y, c.SP, c.Status, c.PC, scanline, dot)
}

// Line renders the trace line for the instruction about to execute at
// pc, reading operand bytes through mem and reporting the picture
// processor's current scanline and dot.
func Line(mem Peeker, a, x, y, sp, status uint8, pc uint16, scanline, dot int) string {
	opcode := mem.Peek(pc)
	inst := mos6502.Lookup(opcode)
	if inst.Mnemonic == "" {
		inst = mos6502.Instruction{Mnemonic: "???", Length: 1}
	}

	hexBytes := []uint8{opcode}
	for i := uint8(1); i < inst.Length; i++ {
		hexBytes = append(hexBytes, mem.Peek(pc+uint16(i)))
	}

	operand := renderOperand(mem, inst, pc, x, y)

	hexParts := make([]string, len(hexBytes))
	for i, b := range hexBytes {
		hexParts[i] = fmt.Sprintf("%02X", b)
	}

	asm := strings.TrimSpace(fmt.Sprintf("%04X  %-8s %-4s %s", pc, strings.Join(hexParts, " "), inst.Mnemonic, operand))

	return strings.ToUpper(fmt.Sprintf("%-47s A:%02X X:%02X Y:%02X P:%02X SP:%02X | PPU: L:%d CYC:%d",
		asm, a, x, y, status, sp, scanline, dot))
}

// renderOperand formats the operand the way the addressing mode
// calls for: immediate values verbatim, memory operands with their
// resolved address and the value currently stored there, relative
// branches resolved to an absolute target, and JMP's two special
// cases (including the indirect page-wrap target).
func renderOperand(mem Peeker, inst mos6502.Instruction, pc uint16, x, y uint8) string {
	switch inst.Mode {
	case mos6502.Implicit:
		return ""
	case mos6502.Accumulator:
		return "A"
	case mos6502.Immediate:
		return fmt.Sprintf("#$%02X", mem.Peek(pc+1))
	case mos6502.ZeroPage:
		addr := uint16(mem.Peek(pc + 1))
		return fmt.Sprintf("$%02X = %02X", addr, mem.Peek(addr))
	case mos6502.ZeroPageX:
		base := mem.Peek(pc + 1)
		addr := uint16(base + x)
		return fmt.Sprintf("$%02X,X @ %02X = %02X", base, addr, mem.Peek(addr))
	case mos6502.ZeroPageY:
		base := mem.Peek(pc + 1)
		addr := uint16(base + y)
		return fmt.Sprintf("$%02X,Y @ %02X = %02X", base, addr, mem.Peek(addr))
	case mos6502.Relative:
		offset := int8(mem.Peek(pc + 1))
		target := uint16(int32(pc) + 2 + int32(offset))
		return fmt.Sprintf("$%04X", target)
	case mos6502.Absolute:
		addr := readWord(mem, pc+1)
		if inst.Mnemonic == "JMP" || inst.Mnemonic == "JSR" {
			return fmt.Sprintf("$%04X", addr)
		}
		return fmt.Sprintf("$%04X = %02X", addr, mem.Peek(addr))
	case mos6502.AbsoluteX:
		base := readWord(mem, pc+1)
		addr := base + uint16(x)
		return fmt.Sprintf("$%04X,X @ %04X = %02X", base, addr, mem.Peek(addr))
	case mos6502.AbsoluteY:
		base := readWord(mem, pc+1)
		addr := base + uint16(y)
		return fmt.Sprintf("$%04X,Y @ %04X = %02X", base, addr, mem.Peek(addr))
	case mos6502.Indirect:
		ptr := readWord(mem, pc+1)
		target := readWordWithPageBug(mem, ptr)
		return fmt.Sprintf("($%04X) = %04X", ptr, target)
	case mos6502.IndirectX:
		base := mem.Peek(pc + 1)
		zp := base + x
		addr := uint16(mem.Peek(uint16(zp+1)))<<8 | uint16(mem.Peek(uint16(zp))) // pointer wraps within the zero page
		return fmt.Sprintf("($%02X,X) @ %02X = %04X = %02X", base, zp, addr, mem.Peek(addr))
	case mos6502.IndirectY:
		base := mem.Peek(pc + 1)
		ptrBase := uint16(mem.Peek(uint16(base+1)))<<8 | uint16(mem.Peek(uint16(base))) // pointer wraps within the zero page
		addr := ptrBase + uint16(y)
		return fmt.Sprintf("($%02X),Y = %04X @ %04X = %02X", base, ptrBase, addr, mem.Peek(addr))
	default:
		return ""
	}
}

func readWord(mem Peeker, addr uint16) uint16 {
	lo := mem.Peek(addr)
	hi := mem.Peek(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// readWordWithPageBug reproduces the indirect-JMP page-wrap bug for
// trace display, matching mos6502's actual resolveOperand behavior.
func readWordWithPageBug(mem Peeker, ptr uint16) uint16 {
	lo := mem.Peek(ptr)
	hiAddr := ptr + 1
	if ptr&0x00FF == 0x00FF {
		hiAddr = ptr & 0xFF00
	}
	hi := mem.Peek(hiAddr)
	return uint16(hi)<<8 | uint16(lo)
}
