package mappers

import "github.com/tnnz/nesgo/nesrom"

func init() {
	Register(0, newMapper0)
}

// mapper0 is NROM: fixed 16 or 32 KiB of program-ROM and a fixed 8 KiB
// of character memory, with an 8 KiB work-RAM window at 0x6000-0x7FFF.
type mapper0 struct {
	prg       []byte
	chr       []byte
	chrIsRAM  bool
	wram      [0x2000]byte
	mirroring nesrom.Mirroring
}

func newMapper0(rom *nesrom.ROM) Mapper {
	return &mapper0{
		prg:       rom.PRG,
		chr:       rom.CHR,
		chrIsRAM:  rom.CHRIsRAM,
		mirroring: rom.Mirroring,
	}
}

func (m *mapper0) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr <= 0x7FFF:
		return m.wram[addr-0x6000]
	case addr >= 0x8000:
		off := addr - 0x8000
		if len(m.prg) == 0x4000 {
			off %= 0x4000 // 16 KiB PRG mirrors into 0xC000-0xFFFF
		}
		return m.prg[off]
	default:
		return 0
	}
}

func (m *mapper0) CPUWrite(addr uint16, val uint8) {
	if addr >= 0x6000 && addr <= 0x7FFF {
		m.wram[addr-0x6000] = val
		return
	}
	// Writes to 0x8000-0xFFFF are ignored: program-ROM is fixed.
}

func (m *mapper0) PPURead(addr uint16) uint8 {
	return m.chr[addr]
}

func (m *mapper0) PPUWrite(addr uint16, val uint8) {
	if m.chrIsRAM {
		m.chr[addr] = val
	}
	// Writes to genuine CHR-ROM are dropped.
}

func (m *mapper0) Mirroring() nesrom.Mirroring {
	return m.mirroring
}
