package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"launchtone/config"
	"launchtone/core"
	"launchtone/host/link"
	"launchtone/sim"
	"launchtone/song"
	"launchtone/song/script"
)

var (
	configPath = flag.String("config", "", "JSON configuration file")
	device     = flag.String("device", config.DefaultDevice, "Serial device path, or \"sim\" for a simulated board")
	baud       = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	songPath   = flag.String("song", "", "Lua song script to stream")
	demo       = flag.Bool("demo", false, "Stream the built-in demo and exit")
	bpm        = flag.Uint("bpm", 0, "Tempo for the built-in demo (default from config)")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	fmt.Println("Launchtone Host - sequencer command link")
	fmt.Println("========================================")

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Connecting to board on %s...\n", cfg.Device)
	board, err := connect(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer board.Close()

	fmt.Println("Connected successfully!")

	switch {
	case cfg.Song != "":
		fmt.Printf("Streaming %s\n", cfg.Song)
		err = script.RunFile(cfg.Song, board)
	case *demo:
		err = playDemo(cfg, board)
	default:
		err = interactive(cfg, board, os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, if any, and applies flags given on the
// command line
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Device = *device
		case "baud":
			cfg.Baud = *baud
		case "song":
			cfg.Song = *songPath
		case "bpm":
			cfg.BPM = uint32(*bpm)
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// connect opens the serial link, or starts a simulated board in this
// process when the device is "sim"
func connect(cfg *config.Config) (*link.Link, error) {
	if cfg.Device != "sim" {
		return link.Connect(cfg.SerialConfig())
	}

	board := sim.NewBoard(0)
	seqConfig := cfg.SequencerConfig()
	seqConfig.Yield = runtime.Gosched
	seq := board.NewSequencer(seqConfig, false)

	ctx, cancel := context.WithCancel(context.Background())
	go sim.RunRealtime(ctx, board.Machine, time.Millisecond)

	hostConn, deviceConn := net.Pipe()
	go func() {
		defer cancel()
		if err := sim.NewDevice(seq).Serve(deviceConn); err != nil && *verbose {
			fmt.Fprintf(os.Stderr, "simulated board stopped: %v\n", err)
		}
	}()
	return link.New(hostConn), nil
}

func playDemo(cfg *config.Config, p song.Player) error {
	fmt.Printf("Streaming demo at %d bpm\n", cfg.BPM)
	tune := song.DemoTune
	tune.BPM = cfg.BPM
	return tune.Play(p)
}

// interactive reads commands from in until EOF or quit
func interactive(cfg *config.Config, p song.Player, in io.Reader) error {
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(in)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		start := time.Now()
		var err error
		switch parts[0] {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return nil

		case "help", "?":
			printHelp()
			continue

		case "tempo":
			var v uint32
			if v, err = argUint(parts, 1, 0); err == nil {
				err = p.SetTempo(v)
			}

		case "play":
			var note, ticks uint32
			if note, err = argNote(parts, 1); err == nil {
				if ticks, err = argUint(parts, 2, 1); err == nil {
					err = p.Play(note, ticks)
				}
			}

		case "rest":
			var ticks uint32
			if ticks, err = argUint(parts, 1, 1); err == nil {
				err = p.Rest(ticks)
			}

		case "demo":
			err = playDemo(cfg, p)

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", parts[0])
			continue
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else if *verbose {
			fmt.Printf("ok (%v)\n", time.Since(start).Round(time.Millisecond))
		}
	}

	return scanner.Err()
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  tempo BPM          - Set the tempo")
	fmt.Println("  play NOTE [TICKS]  - Play a note (half-period or name such as A4)")
	fmt.Println("  rest [TICKS]       - Stay silent")
	fmt.Println("  demo               - Stream the built-in demo")
	fmt.Println("  help               - Show this help message")
	fmt.Println("  quit/exit/q        - Exit the program")
	fmt.Println()
}

// argUint parses parts[i], returning def when it is absent
func argUint(parts []string, i int, def uint32) (uint32, error) {
	if i >= len(parts) {
		if def == 0 {
			return 0, fmt.Errorf("%s: missing argument", parts[0])
		}
		return def, nil
	}
	v, err := strconv.ParseUint(parts[i], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: bad number %q", parts[0], parts[i])
	}
	return uint32(v), nil
}

// argNote accepts a half-period or a note name
func argNote(parts []string, i int) (uint32, error) {
	if i >= len(parts) {
		return 0, fmt.Errorf("%s: missing note", parts[0])
	}
	if v, err := strconv.ParseUint(parts[i], 10, 32); err == nil {
		return uint32(v), nil
	}
	midi, err := core.ParseNote(parts[i])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", parts[0], err)
	}
	return core.NoteHalfPeriod(midi), nil
}
