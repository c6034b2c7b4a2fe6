// Command analyze runs the crime engine against a perception payload on
// disk and prints the report, for threshold tuning and offline review
// without the queue or database.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/technosupport/ts-crimewatch/internal/config"
	"github.com/technosupport/ts-crimewatch/internal/engine"
	"github.com/technosupport/ts-crimewatch/internal/narrative"
)

func main() {
	inputPath := flag.String("input", "", "Path to perception JSON (frames, clips, motion)")
	configPath := flag.String("config", "", "Optional engine config YAML, defaults otherwise")
	withNarrative := flag.Bool("narrative", false, "Append the template narrative to the output")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("[Analyze] -input is required")
	}

	raw, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("[Analyze] Read input: %v", err)
	}
	var input engine.Input
	if err := json.Unmarshal(raw, &input); err != nil {
		log.Fatalf("[Analyze] Parse input: %v", err)
	}

	cfg, err := config.LoadEngineConfig(*configPath)
	if err != nil {
		log.Fatalf("[Analyze] Engine config: %v", err)
	}
	eng, err := engine.NewEngine(cfg)
	if err != nil {
		log.Fatalf("[Analyze] Engine init: %v", err)
	}

	report, err := eng.Analyze(input)
	if err != nil {
		log.Fatalf("[Analyze] Analysis failed: %v", err)
	}

	out := struct {
		*engine.CrimeReport
		Narrative string `json:"narrative,omitempty"`
	}{CrimeReport: report}
	if *withNarrative {
		out.Narrative = narrative.Fallback(report)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("[Analyze] Encode report: %v", err)
	}
}
