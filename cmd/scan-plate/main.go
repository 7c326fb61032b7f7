// Command scan-plate OCRs a single data plate photo and dumps the reading,
// without any warranty lookup or ServiceTitan traffic.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/christmasair/plate-scanner/config"
	"github.com/christmasair/plate-scanner/internal/equipment"
	"github.com/christmasair/plate-scanner/internal/vision"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	config.LoadEnvFile()

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <image-path>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY - Required\n")
		os.Exit(1)
	}

	imageData, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	analyzer, err := vision.NewGeminiAnalyzer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create analyzer: %v\n", err)
		os.Exit(1)
	}

	res, err := analyzer.AnalyzePlate(ctx, imageData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(res.Reading, "", "  ")
	fmt.Println(string(out))

	if res.Reading.IsDataPlate {
		rec := &equipment.Record{}
		vision.PopulateRecord(rec, res.Reading)
		fmt.Printf("\nDetected type: %s\n", rec.Type)
		if brand, ok := equipment.ResolveBrand(rec.Manufacturer); ok {
			fmt.Printf("Warranty portal: %s\n", brand)
		} else {
			fmt.Println("Warranty portal: none (unsupported brand)")
		}
	}

	fmt.Printf("\nTokens: %d in / %d out, cost $%.5f\n",
		res.Usage.InputTokens, res.Usage.OutputTokens, res.Usage.CostUSD)
}
