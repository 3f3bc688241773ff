// Package console wires the processor, picture processor, controller
// port, and cartridge mapper into the address bus that arbitrates
// between them, and exposes the ebiten.Game surface the presentation
// layer drives.
package console

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tnnz/nesgo/mappers"
	"github.com/tnnz/nesgo/mos6502"
	"github.com/tnnz/nesgo/ppu"
)

const (
	internalRAMSize = 0x0800 // 2 KiB
	maxInternalRAM  = 0x1FFF
	maxPPURegion    = 0x3FFF
	oamDMARegister  = 0x4014
	controller1Reg  = 0x4016
	controller2Reg  = 0x4017
	maxAudioRegion  = 0x5FFF

	oamDMACycles = 513 // chosen per the open question; see design notes; charged in Tick-sized chunks since Tick takes a uint8
)

// FrameReadyFunc is invoked once per frame, at the first tick in which
// the picture processor raises its NMI-pending flag at scanline 241,
// with the just-rendered frame and a mutable handle to controller 1.
// While control's generate-NMI bit is clear it is not invoked.
type FrameReadyFunc func(frame *ppu.Frame, ctl *Controller)

// Bus multiplexes processor-address-space reads and writes to
// internal RAM, the picture processor's registers, the controller
// port, and the cartridge mapper, and advances the picture processor
// three dots per processor cycle.
type Bus struct {
	cpu        *mos6502.CPU
	ppu        *ppu.PPU
	mapper     mappers.Mapper
	controller Controller

	ram    [internalRAMSize]byte
	cycles uint64

	// StrictMode governs forbidden-register-access handling: fatal
	// when true, logged-once-and-coerced when false.
	StrictMode bool
	warned     map[string]bool

	onFrameReady FrameReadyFunc
}

// New builds a bus bound to mapper, constructs its processor and
// picture processor, and sizes the presentation window.
func New(m mappers.Mapper) *Bus {
	b := &Bus{mapper: m, warned: make(map[string]bool)}
	b.ppu = ppu.New(m)
	b.cpu = mos6502.New(b)

	ebiten.SetWindowSize(ppu.FrameWidth*2, ppu.FrameHeight*2)
	ebiten.SetWindowTitle("nesgo")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	return b
}

// OnFrameReady registers the presentation layer's callback.
func (b *Bus) OnFrameReady(f FrameReadyFunc) { b.onFrameReady = f }

// Controller exposes the first controller port for the presentation
// layer to drive outside the frame-ready window (e.g. wiring ebiten
// key polling).
func (b *Bus) Controller() *Controller { return &b.controller }

// CPU exposes the processor for the debugger and trace formatter.
func (b *Bus) CPU() *mos6502.CPU { return b.cpu }

// Scanline and Dot expose the picture processor's clock position for
// the debug trace formatter.
func (b *Bus) Scanline() int { return b.ppu.Scanline() }
func (b *Bus) Dot() int      { return b.ppu.Dot() }

// warnOnce logs a forbidden-access message exactly once per distinct
// detail string, per the lenient-mode "logged once" contract.
func (b *Bus) warnOnce(detail string) {
	if b.warned[detail] {
		return
	}
	b.warned[detail] = true
	log.Printf("nesgo: %s (coerced)", detail)
}

// fail handles an error surfaced by a register access: fatal in
// strict mode, logged once and coerced in lenient mode.
func (b *Bus) fail(err error) {
	if err == nil {
		return
	}
	if b.StrictMode {
		log.Fatalf("nesgo: fatal at PC 0x%04X: %v", b.cpu.PC, err)
	}
	b.warnOnce(err.Error())
}

// Read services a processor read per the address map in §4.4: 2 KiB
// internal RAM, picture-processor registers, controller ports,
// stubbed audio, and the cartridge mapper.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr <= maxInternalRAM:
		return b.ram[addr&0x07FF]
	case addr <= maxPPURegion:
		v, err := b.ppu.ReadRegister((addr - 0x2000) & 0x07)
		b.fail(err)
		return v
	case addr == controller1Reg:
		return b.controller.Read()
	case addr == controller2Reg:
		return 0 // controller 2 is unimplemented
	case addr <= maxAudioRegion && addr >= 0x4000:
		return 0 // audio processor stub
	default:
		return b.mapper.CPURead(addr)
	}
}

// Peek returns what Read would produce without any read-side effects:
// no vblank clear, no OAM/VRAM address advance, no controller shift.
// Required by the trace/debug surface.
func (b *Bus) Peek(addr uint16) uint8 {
	switch {
	case addr <= maxInternalRAM:
		return b.ram[addr&0x07FF]
	case addr <= maxPPURegion:
		return b.ppu.PeekRegister((addr - 0x2000) & 0x07)
	case addr == controller1Reg, addr == controller2Reg:
		return 0
	case addr <= maxAudioRegion && addr >= 0x4000:
		return 0
	default:
		return b.mapper.CPURead(addr)
	}
}

// Write services a processor write per the address map in §4.4.
func (b *Bus) Write(addr uint16, val uint8) {
	switch {
	case addr <= maxInternalRAM:
		b.ram[addr&0x07FF] = val
	case addr <= maxPPURegion:
		b.fail(b.ppu.WriteRegister((addr-0x2000)&0x07, val))
	case addr == oamDMARegister:
		b.oamDMA(val)
	case addr == controller1Reg:
		b.controller.Write(val)
	case addr == controller2Reg:
		// controller 2 is unimplemented: writes are dropped
	case addr <= maxAudioRegion && addr >= 0x4000:
		// audio processor stub: writes are dropped
	default:
		b.mapper.CPUWrite(addr, val)
	}
}

// oamDMA copies 256 bytes from processor address space starting at
// page*0x100 into OAM starting from the current OAM address, then
// charges the processor's bus time for the burst.
func (b *Bus) oamDMA(page uint8) {
	base := uint16(page) << 8
	var data [256]byte
	for i := 0; i < 256; i++ {
		data[i] = b.Read(base + uint16(i))
	}
	b.ppu.OAMDMAWrite(data)
	for remaining := oamDMACycles; remaining > 0; {
		chunk := remaining
		if chunk > math.MaxUint8 {
			chunk = math.MaxUint8
		}
		b.Tick(uint8(chunk))
		remaining -= chunk
	}
}

// Tick implements mos6502.Bus: advance the cycle counter by n and the
// picture processor by 3n dots, firing the frame-ready callback
// exactly once if the non-maskable-interrupt flag rose during this
// tick.
func (b *Bus) Tick(n uint8) {
	b.cycles += uint64(n)

	before := b.ppu.NMIPending()
	b.ppu.Tick(3 * int(n))
	after := b.ppu.NMIPending()

	if !before && after && b.onFrameReady != nil {
		frame := b.ppu.Render()
		b.onFrameReady(frame, &b.controller)
	}
}

// NMIPending and AcknowledgeNMI implement mos6502.Bus by delegating
// to the picture processor, which owns the actual flag.
func (b *Bus) NMIPending() bool { return b.ppu.NMIPending() }
func (b *Bus) AcknowledgeNMI()  { b.ppu.AcknowledgeNMI() }

// Run drives the processor loop until ctx is cancelled. This is the
// sole thread of control; every other subsystem is driven
// synchronously from within it.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			b.cpu.Step()
		}
	}
}

// Layout, Draw and Update implement ebiten.Game. The emulation loop
// runs on its own goroutine (see Run); Update is a required no-op and
// Draw blits the most recently rendered frame.
type Presenter struct {
	bus       *Bus
	lastFrame *ppu.Frame
}

// NewPresenter wraps bus as an ebiten.Game, caching the most recently
// rendered frame for Draw.
func NewPresenter(b *Bus) *Presenter {
	p := &Presenter{bus: b}
	b.OnFrameReady(func(f *ppu.Frame, _ *Controller) {
		p.lastFrame = f
	})
	return p
}

func (p *Presenter) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ppu.FrameWidth, ppu.FrameHeight
}

func (p *Presenter) Draw(screen *ebiten.Image) {
	if p.lastFrame == nil {
		return
	}
	f := p.lastFrame
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			i := (y*f.Width + x) * 3
			screen.Set(x, y, rgbColor{f.Pixels[i], f.Pixels[i+1], f.Pixels[i+2]})
		}
	}
}

func (p *Presenter) Update() error { return nil }

// rgbColor adapts a packed RGB triplet to color.Color without pulling
// in the image/color package's alpha-premultiplication machinery.
type rgbColor struct{ r, g, b uint8 }

func (c rgbColor) RGBA() (r, g, b, a uint32) {
	r = uint32(c.r) * 0x101
	g = uint32(c.g) * 0x101
	b = uint32(c.b) * 0x101
	a = 0xFFFF
	return
}

// String summarizes the bus's cycle count and the processor's PC.
func (b *Bus) String() string {
	return fmt.Sprintf("cycles=%d pc=0x%04X", b.cycles, b.cpu.PC)
}
