package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"launchtone/audio"
	"launchtone/config"
	"launchtone/core"
	"launchtone/sim"
	"launchtone/song"
	"launchtone/song/script"
)

var (
	configPath = flag.String("config", "", "JSON configuration file")
	songPath   = flag.String("song", "", "Lua song script (default: built-in demo)")
	bpm        = flag.Uint("bpm", 0, "Tempo for the built-in demo (default from config)")
	deadTime   = flag.Uint("dead-time", 0, "Silence at the end of each note in ms")
	loop       = flag.Bool("loop", false, "Wait for another keypress after the song ends")
	mute       = flag.Bool("mute", false, "Run in real time without opening an audio device")
	noWait     = flag.Bool("no-wait", false, "Start playing without waiting for a keypress")
	start      = flag.Uint("start", 0, "Initial timer counter value")
	verbose    = flag.Bool("verbose", false, "Print sequencer timing events")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		core.SetDebugWriter(func(s string) { fmt.Print(s + "\r\n") })
		core.SetDebugEnabled(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	board := sim.NewBoard(uint32(*start))
	idle := sim.NewLED(func(on bool) {
		if on {
			fmt.Println("Ready. Press any key to play, q to quit.")
		}
	})

	if *mute {
		go sim.RunRealtime(ctx, board.Machine, time.Millisecond)
	} else {
		renderer := audio.NewRenderer(board, cfg.SampleRate, cfg.Amplitude)
		player, err := audio.NewPlayer(renderer.SampleRate(), renderer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v (use -mute to run without audio)\n", err)
			os.Exit(1)
		}
		player.Start()
		defer player.Close()
	}

	seqConfig := cfg.SequencerConfig()
	seqConfig.Yield = runtime.Gosched
	seq := board.NewSequencer(seqConfig, false)

	for {
		if !*noWait {
			idle.Set(true)
			quit, err := waitForKey(ctx)
			idle.Set(false)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if quit {
				return
			}
		}

		if err := playSong(cfg, seq); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if *verbose {
			core.DumpTimingRing()
		}

		if !cfg.Loop || ctx.Err() != nil {
			return
		}
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
		case "song":
			cfg.Song = *songPath
		case "bpm":
			cfg.BPM = uint32(*bpm)
		case "dead-time":
			cfg.DeadTimeMS = uint32(*deadTime)
			cfg.NoDeadTime = *deadTime == 0
		case "loop":
			cfg.Loop = *loop
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func playSong(cfg *config.Config, p song.Player) error {
	if cfg.Song != "" {
		fmt.Printf("Playing %s\n", cfg.Song)
		return script.RunFile(cfg.Song, p)
	}

	fmt.Printf("Playing demo at %d bpm\n", cfg.BPM)
	tune := song.DemoTune
	tune.BPM = cfg.BPM
	return tune.Play(p)
}
