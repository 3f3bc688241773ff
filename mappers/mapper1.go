package mappers

import "github.com/tnnz/nesgo/nesrom"

func init() {
	Register(1, newMapper1)
}

// mapper1 is MMC1: a 5-bit serial shift register feeding four internal
// registers (control, chr-bank-0, chr-bank-1, prg-bank) that are only
// committed once every five consecutive writes.
type mapper1 struct {
	prg      []byte
	chr      []byte
	chrIsRAM bool
	wram     [0x2000]byte

	shift uint8
	count uint8

	mirroring   nesrom.Mirroring
	prgBankMode uint8 // 0/1: 32KiB; 2: fix first, switch 0xC000; 3: fix last, switch 0x8000
	chrBankMode uint8 // 0: single 8KiB switch; 1: two 4KiB switches
	chrBank0    uint8
	chrBank1    uint8
	prgBank     uint8

	prgOffsetLow, prgOffsetHigh int // byte offsets for 0x8000-0xBFFF, 0xC000-0xFFFF
	chrOffsetLow, chrOffsetHigh int // byte offsets for 0x0000-0x0FFF, 0x1000-0x1FFF
}

func newMapper1(rom *nesrom.ROM) Mapper {
	m := &mapper1{
		prg:         rom.PRG,
		chr:         rom.CHR,
		chrIsRAM:    rom.CHRIsRAM,
		mirroring:   rom.Mirroring,
		prgBankMode: 3,
	}
	m.recompute()
	return m
}

func mmc1Mirroring(v uint8) nesrom.Mirroring {
	switch v & 0b11 {
	case 0:
		return nesrom.MirrorSingleLower
	case 1:
		return nesrom.MirrorSingleUpper
	case 2:
		return nesrom.MirrorVertical
	default:
		return nesrom.MirrorHorizontal
	}
}

func (m *mapper1) writeControlRegister(v uint8) {
	m.mirroring = mmc1Mirroring(v)
	m.prgBankMode = (v >> 2) & 0b11
	m.chrBankMode = (v >> 4) & 0b1
}

func (m *mapper1) prgBankCount() uint8 {
	return uint8(len(m.prg) / 0x4000)
}

// recompute caches the byte offsets that CPURead/PPURead index
// directly, so the hot read path never re-derives bank geometry.
func (m *mapper1) recompute() {
	nBanks := int(m.prgBankCount())

	switch m.prgBankMode {
	case 0, 1:
		bank := int(m.prgBank >> 1) // 32 KiB granularity ignores the low bit
		if bank*2+1 >= nBanks {
			bank = 0
		}
		m.prgOffsetLow = bank * 0x8000
		m.prgOffsetHigh = m.prgOffsetLow + 0x4000
	case 2:
		m.prgOffsetLow = 0
		m.prgOffsetHigh = int(m.prgBank) * 0x4000
	default: // 3
		m.prgOffsetLow = int(m.prgBank) * 0x4000
		last := nBanks - 1
		if last < 0 {
			last = 0
		}
		m.prgOffsetHigh = last * 0x4000
	}

	if m.chrBankMode == 0 {
		bank := int(m.chrBank0 >> 1) // 8 KiB granularity ignores the low bit
		m.chrOffsetLow = bank * 0x2000
		m.chrOffsetHigh = m.chrOffsetLow + 0x1000
	} else {
		m.chrOffsetLow = int(m.chrBank0) * 0x1000
		m.chrOffsetHigh = int(m.chrBank1) * 0x1000
	}
}

func (m *mapper1) CPUWrite(addr uint16, data uint8) {
	if addr >= 0x6000 && addr <= 0x7FFF {
		m.wram[addr-0x6000] = data
		return
	}
	if addr < 0x8000 {
		return
	}

	if data&0x80 != 0 {
		m.shift = 0
		m.count = 0
		m.prgBankMode = 3
		m.recompute()
		return
	}

	m.shift = (m.shift >> 1) | ((data & 1) << 4)
	m.count++

	if m.count == 5 {
		switch (addr - 0x8000) >> 13 {
		case 0:
			m.writeControlRegister(m.shift)
		case 1:
			m.chrBank0 = m.shift
		case 2:
			m.chrBank1 = m.shift
		case 3:
			m.prgBank = m.shift
		}
		m.shift = 0
		m.count = 0
		m.recompute()
	}
}

func (m *mapper1) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr <= 0x7FFF:
		return m.wram[addr-0x6000]
	case addr >= 0x8000 && addr < 0xC000:
		return m.prg[m.prgOffsetLow+int(addr-0x8000)]
	case addr >= 0xC000:
		return m.prg[m.prgOffsetHigh+int(addr-0xC000)]
	default:
		return 0
	}
}

func (m *mapper1) PPURead(addr uint16) uint8 {
	if addr < 0x1000 {
		return m.chr[m.chrOffsetLow+int(addr)]
	}
	return m.chr[m.chrOffsetHigh+int(addr-0x1000)]
}

func (m *mapper1) PPUWrite(addr uint16, val uint8) {
	if !m.chrIsRAM {
		return
	}
	if addr < 0x1000 {
		m.chr[m.chrOffsetLow+int(addr)] = val
	} else {
		m.chr[m.chrOffsetHigh+int(addr-0x1000)] = val
	}
}

func (m *mapper1) Mirroring() nesrom.Mirroring {
	return m.mirroring
}
