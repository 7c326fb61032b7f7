// Command lookup-warranty runs a single warranty lookup against a
// manufacturer portal, for testing site definitions without burning a
// Gemini call.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/christmasair/plate-scanner/internal/equipment"
	"github.com/christmasair/plate-scanner/internal/warranty"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	headful := flag.Bool("headful", false, "run in a visible browser")
	model := flag.String("model", "", "model number (some portals want it)")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <brand> <serial>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Brands: %s\n", strings.Join(warranty.Handlers(), ", "))
		flag.PrintDefaults()
		os.Exit(1)
	}

	brand, ok := equipment.ResolveBrand(flag.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "Unsupported brand: %s\n", flag.Arg(0))
		os.Exit(1)
	}
	site, ok := warranty.SiteFor(brand)
	if !ok {
		fmt.Fprintf(os.Stderr, "No portal for brand: %s\n", brand)
		os.Exit(1)
	}

	driver := warranty.NewDriver(warranty.Opts{Headful: *headful})
	w := driver.Lookup(context.Background(), site, flag.Arg(1), *model)

	fmt.Printf("Status: %s\n", w.Status)
	if w.Err != "" {
		fmt.Printf("Error:  %s\n", w.Err)
	}
	if w.InstallDate != nil {
		fmt.Printf("Install date: %s\n", w.InstallDate.Format("2006-01-02"))
	}
	if w.RegistrationType != "" {
		fmt.Printf("Registration: %s\n", w.RegistrationType)
	}
	for _, c := range w.Components {
		state := "active"
		if c.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Printf("  %-30s %d yr, ends %s (%s)\n", c.Name, c.TermYears, c.EndDate.Format("2006-01-02"), state)
	}
}
