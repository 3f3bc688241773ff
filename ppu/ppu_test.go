package ppu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnnz/nesgo/nesrom"
)

// fakeMapper is a minimal in-memory mapper stand-in so ppu tests don't
// need a real cartridge image.
type fakeMapper struct {
	chr       [0x2000]byte
	mirroring nesrom.Mirroring
}

func (f *fakeMapper) CPURead(addr uint16) uint8     { return 0 }
func (f *fakeMapper) CPUWrite(addr uint16, v uint8) {}
func (f *fakeMapper) PPURead(addr uint16) uint8     { return f.chr[addr] }
func (f *fakeMapper) PPUWrite(addr uint16, v uint8) { f.chr[addr] = v }
func (f *fakeMapper) Mirroring() nesrom.Mirroring   { return f.mirroring }

func newTestPPU(mirroring nesrom.Mirroring) *PPU {
	return New(&fakeMapper{mirroring: mirroring})
}

func writeAddr(p *PPU, addr uint16) {
	p.WriteRegister(6, uint8(addr>>8))
	p.WriteRegister(6, uint8(addr))
}

func TestVRAMWriteThenRead(t *testing.T) {
	p := newTestPPU(nesrom.MirrorHorizontal)
	writeAddr(p, 0x2305)
	p.WriteRegister(7, 0x66)

	writeAddr(p, 0x2305)
	first, err := p.ReadRegister(7) // buffered: returns stale buffer contents
	require.NoError(t, err)
	assert.Equal(t, uint8(0), first)

	second, err := p.ReadRegister(7)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x66), second)
}

func TestVRAMReadCrossesPage(t *testing.T) {
	p := newTestPPU(nesrom.MirrorHorizontal)
	writeAddr(p, 0x21FF)
	p.WriteRegister(7, 1)
	p.WriteRegister(7, 2)

	writeAddr(p, 0x21FF)
	p.ReadRegister(7)
	a, _ := p.ReadRegister(7)
	b, _ := p.ReadRegister(7)
	assert.Equal(t, uint8(1), a)
	assert.Equal(t, uint8(2), b)
}

func TestVRAMAddressIncrementStep32(t *testing.T) {
	p := newTestPPU(nesrom.MirrorHorizontal)
	p.WriteRegister(0, 0b0000_0100) // vram-increment = 32
	writeAddr(p, 0x2000)
	p.WriteRegister(7, 1)
	p.WriteRegister(7, 2)

	writeAddr(p, 0x2000)
	p.ReadRegister(7)
	a, _ := p.ReadRegister(7)
	assert.Equal(t, uint8(1), a)

	writeAddr(p, 0x2020)
	p.ReadRegister(7)
	b, _ := p.ReadRegister(7)
	assert.Equal(t, uint8(2), b)
}

func TestVerticalMirroring(t *testing.T) {
	p := newTestPPU(nesrom.MirrorVertical)
	writeAddr(p, 0x2305)
	p.WriteRegister(7, 0x66)

	writeAddr(p, 0x2B05) // nametable 2 mirrors nametable 0 under vertical mirroring
	writeAddr(p, 0x2B05)
	p.ReadRegister(7)
	v, _ := p.ReadRegister(7)
	assert.Equal(t, uint8(0x66), v)
}

func TestHorizontalMirroring(t *testing.T) {
	p := newTestPPU(nesrom.MirrorHorizontal)
	writeAddr(p, 0x2405)
	p.WriteRegister(7, 0x66)

	writeAddr(p, 0x2005) // nametable 0 mirrors nametable 1 under horizontal mirroring
	writeAddr(p, 0x2005)
	p.ReadRegister(7)
	v, _ := p.ReadRegister(7)
	assert.Equal(t, uint8(0x66), v)
}

func TestStatusReadResetsLatchAndVBlank(t *testing.T) {
	p := newTestPPU(nesrom.MirrorHorizontal)
	p.status |= StatusVBlank
	p.writeLatch = true

	v, err := p.ReadRegister(2)
	require.NoError(t, err)
	assert.True(t, Status(v).VBlank())
	assert.False(t, p.status.VBlank())
	assert.False(t, p.writeLatch)

	// next write to 0x2005 is treated as the first of the pair
	p.WriteRegister(5, 0x10)
	assert.Equal(t, uint8(0x10), p.scrollX)
}

func TestOAMReadWrite(t *testing.T) {
	p := newTestPPU(nesrom.MirrorHorizontal)
	p.WriteRegister(3, 0x10)
	p.WriteRegister(4, 0xAB)
	p.WriteRegister(3, 0x10)
	v, err := p.ReadRegister(4)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), v)
}

func TestOAMDMAWritesInOrder(t *testing.T) {
	p := newTestPPU(nesrom.MirrorHorizontal)
	var data [256]byte
	for i := range data {
		data[i] = byte(i)
	}
	p.OAMDMAWrite(data)
	for i := 0; i < 256; i++ {
		assert.Equal(t, byte(i), p.oam[i])
	}
}

func TestWriteToStatusIsForbidden(t *testing.T) {
	p := newTestPPU(nesrom.MirrorHorizontal)
	err := p.WriteRegister(2, 0xFF)
	assert.Error(t, err)
	assert.Equal(t, Status(0), p.status)
}

func TestReadOfControlIsForbidden(t *testing.T) {
	p := newTestPPU(nesrom.MirrorHorizontal)
	_, err := p.ReadRegister(0)
	assert.Error(t, err)
}

func TestTickAdvancesScanlineAndRaisesNMI(t *testing.T) {
	p := newTestPPU(nesrom.MirrorHorizontal)
	p.WriteRegister(0, 0b1000_0000) // generate-NMI enabled

	for p.scanline < vblankScanline {
		p.Tick(1)
	}
	assert.True(t, p.NMIPending())
	assert.True(t, p.status.VBlank())
}

func TestTickWrapsFrameAndLowersNMI(t *testing.T) {
	p := newTestPPU(nesrom.MirrorHorizontal)
	p.WriteRegister(0, 0b1000_0000)

	for i := 0; i < dotsPerScanline*scanlinesPerFrame; i++ {
		p.Tick(1)
	}
	assert.Equal(t, 0, p.scanline)
	assert.False(t, p.status.VBlank())
	assert.False(t, p.NMIPending())
}

func TestPaletteMirroring(t *testing.T) {
	p := newTestPPU(nesrom.MirrorHorizontal)
	writeAddr(p, 0x3F10)
	p.WriteRegister(7, 0x20)

	writeAddr(p, 0x3F00)
	got, e2 := p.ReadRegister(7)
	require.NoError(t, e2)
	assert.Equal(t, uint8(0x20), got)
}
