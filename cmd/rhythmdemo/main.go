// Command rhythmdemo wires a mini-notation channel and a rhythmscript grid
// call to rhythm machines and prints one window's worth of triggered
// notes/pulses, demonstrating the full pipeline end to end. Bootstrap order:
// load .env, load config, optionally init Sentry, then run.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/Conceptual-Machines/rhythmforge/internal/config"
	"github.com/Conceptual-Machines/rhythmforge/internal/cycle"
	"github.com/Conceptual-Machines/rhythmforge/internal/host"
	"github.com/Conceptual-Machines/rhythmforge/internal/note"
	"github.com/Conceptual-Machines/rhythmforge/internal/params"
	"github.com/Conceptual-Machines/rhythmforge/internal/pulse"
	"github.com/Conceptual-Machines/rhythmforge/internal/rhythm"
	"github.com/Conceptual-Machines/rhythmforge/internal/rhythmscript"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"
)

var releaseVersion = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
			Release:     "rhythmforge@" + releaseVersion,
			Debug:       cfg.Environment != environmentProduction,
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			defer sentry.Flush(sentryFlushTimeout)
		}
	}

	tb := rhythm.TimeBase{SampleRate: cfg.SampleRate, BPM: cfg.BPM, BeatsPerBar: cfg.BeatsPerBar}

	channels, err := cycle.Parse("c4 e4 g4 e4")
	if err != nil {
		log.Fatalf("parsing cycle: %v", err)
	}
	ceval := cycle.NewEvaluator(channels, cfg.Seed)
	steps := ceval.Emit(0)[0]

	desc := host.Descriptor{
		ID:      "demo-1",
		Script:  "c4 e4 g4 e4",
		Pattern: pulse.New(len(steps), 1.0, nil),
		Unit:    rhythm.UnitCycleFraction,
		Value:   1,
		Repeat:  rhythm.RepeatPolicy{Kind: rhythm.RepeatForever},
		Seed:    cfg.Seed,
		Channel: steps,
		OnEvent: func(ev rhythm.EventContext, n note.Note) {
			fmt.Printf("sample=%.0f step=%d key=%d\n", ev.OffsetSamples, ev.Counters.PulseStep, n[0].Key)
		},
	}

	inst, err := host.New(desc, tb, params.Snapshot{})
	if err != nil {
		log.Fatalf("building rhythm instance: %v", err)
	}
	inst.Start()
	inst.Pull(tb.SamplesPerBar())

	// A second instance, compiled from the declarative rhythmscript front
	// end rather than mini-notation, driving a grid pattern straight off
	// its own Descriptor.
	rsSource := `rhythm(grid="x--x--x-", unit="beats", value=0.5, repeat="true")`
	rsParser, err := rhythmscript.NewParser()
	if err != nil {
		log.Fatalf("building rhythmscript parser: %v", err)
	}
	rsDesc, err := rsParser.Parse(rsSource)
	if err != nil {
		log.Fatalf("parsing rhythmscript: %v", err)
	}

	gridDesc := host.Descriptor{
		ID:      "demo-2",
		Script:  rsSource,
		Pattern: rsDesc.Pattern,
		Unit:    rsDesc.Unit,
		Value:   rsDesc.Value,
		Offset:  rsDesc.Offset,
		Repeat:  rsDesc.Repeat,
		Trigger: rsDesc.Trigger,
		Seed:    rsDesc.Seed,
		OnEvent: func(ev rhythm.EventContext, _ note.Note) {
			fmt.Printf("grid sample=%.0f step=%d value=%.2f\n", ev.OffsetSamples, ev.Counters.PulseStep, float64(ev.Value))
		},
	}
	gridInst, err := host.New(gridDesc, tb, params.Snapshot{})
	if err != nil {
		log.Fatalf("building grid rhythm instance: %v", err)
	}
	gridInst.Start()
	gridInst.Pull(tb.SamplesPerBar())
}
