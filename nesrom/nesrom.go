package nesrom

import (
	"fmt"
	"io"
	"os"
)

// ROM is the immutable cartridge descriptor produced by decoding an
// iNES-format image: program-ROM bytes, character data (ROM or a
// zero-filled RAM buffer), mapper id, and nametable mirroring mode.
type ROM struct {
	PRG       []byte
	CHR       []byte
	CHRIsRAM  bool
	MapperID  uint8
	Mirroring Mirroring
	battery   bool
}

// New reads and validates path as a version-1 iNES image and returns
// the decoded cartridge descriptor.
func New(path string) (*ROM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("nesrom: couldn't open %q: %w", path, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("nesrom: couldn't read %q: %w", path, err)
	}

	return Decode(raw)
}

// Decode parses raw as a complete iNES image (header, optional
// trainer, PRG-ROM, CHR-ROM) and returns the cartridge descriptor.
func Decode(raw []byte) (*ROM, error) {
	h, err := parseHeader(raw)
	if err != nil {
		return nil, err
	}

	pos := headerSize
	if h.hasTrainer() {
		pos += trainerSize // trainer contents aren't used by this core
	}

	prgLen := int(h.prgBanks) * prgBankSize
	if pos+prgLen > len(raw) {
		return nil, fmt.Errorf("nesrom: truncated PRG-ROM (want %d bytes, have %d)", prgLen, len(raw)-pos)
	}
	prg := make([]byte, prgLen)
	copy(prg, raw[pos:pos+prgLen])
	pos += prgLen

	var chr []byte
	chrIsRAM := h.chrBanks == 0
	if chrIsRAM {
		chr = make([]byte, chrBankSize)
	} else {
		chrLen := int(h.chrBanks) * chrBankSize
		if pos+chrLen > len(raw) {
			return nil, fmt.Errorf("nesrom: truncated CHR-ROM (want %d bytes, have %d)", chrLen, len(raw)-pos)
		}
		chr = make([]byte, chrLen)
		copy(chr, raw[pos:pos+chrLen])
	}

	return &ROM{
		PRG:       prg,
		CHR:       chr,
		CHRIsRAM:  chrIsRAM,
		MapperID:  h.mapperID(),
		Mirroring: h.mirroring(),
		battery:   h.flags6&flags6Battery != 0,
	}, nil
}

// Encode re-serializes the cartridge as a minimal version-1 iNES
// image (no trainer). Round-tripping New/Decode then Encode yields the
// original PRG-ROM and CHR-ROM bytes back out.
func (r *ROM) Encode() []byte {
	var flags6 uint8
	switch r.Mirroring {
	case MirrorVertical:
		flags6 |= flags6Mirroring
	case MirrorFourScreen:
		flags6 |= flags6FourScreen
	}
	if r.battery {
		flags6 |= flags6Battery
	}
	flags6 |= (r.MapperID & 0x0F) << 4

	flags7 := r.MapperID & 0xF0

	chrBanks := uint8(0)
	if !r.CHRIsRAM {
		chrBanks = uint8(len(r.CHR) / chrBankSize)
	}

	out := make([]byte, headerSize, headerSize+len(r.PRG)+len(r.CHR))
	copy(out[0:4], magic[:])
	out[4] = uint8(len(r.PRG) / prgBankSize)
	out[5] = chrBanks
	out[6] = flags6
	out[7] = flags7

	out = append(out, r.PRG...)
	if !r.CHRIsRAM {
		out = append(out, r.CHR...)
	}
	return out
}

// HasBattery reports whether the cartridge declares battery-backed
// work RAM at 0x6000-0x7FFF.
func (r *ROM) HasBattery() bool {
	return r.battery
}
