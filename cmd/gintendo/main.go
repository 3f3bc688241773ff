// Command gintendo runs an iNES cartridge, either in the ebiten game
// window or, with --debug, in a terminal-based instruction debugger.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tnnz/nesgo/console"
	"github.com/tnnz/nesgo/internal/debugger"
	"github.com/tnnz/nesgo/mappers"
	"github.com/tnnz/nesgo/nesrom"
)

var (
	debugFlag  = flag.Bool("debug", false, "Launch the terminal debugger instead of the game window.")
	strictFlag = flag.Bool("strict", false, "Treat forbidden register accesses as fatal errors.")
	scaleFlag  = flag.Int("scale", 2, "Integer window scale factor.")
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: gintendo [flags] <rom-path>")
	}
	romFile := flag.Arg(0)

	rom, err := nesrom.New(romFile)
	if err != nil {
		log.Fatalf("invalid ROM: %v", err)
	}

	m, err := mappers.New(rom)
	if err != nil {
		log.Fatalf("unsupported cartridge: %v", err)
	}

	bus := console.New(m)
	bus.StrictMode = *strictFlag

	if *debugFlag {
		if err := debugger.Run(bus); err != nil {
			log.Fatalf("debugger exited: %v", err)
		}
		os.Exit(0)
	}

	presenter := console.NewPresenter(bus)
	scale := *scaleFlag
	ebiten.SetWindowSize(256*scale, 240*scale) // overrides New's default 2x size with the requested scale

	ctx, cancel := context.WithCancel(context.Background())
	go bus.Run(ctx)

	if err := ebiten.RunGame(presenter); err != nil {
		log.Fatalf("game loop exited: %v", err)
	}

	cancel()
	os.Exit(0)
}
