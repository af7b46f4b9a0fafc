// Command tuntundb is a minimal CLI front end for the tuntundb storage
// engine. It reads one structured query object as JSON, either from the
// file named by -query or from stdin, executes it against a data
// directory, and prints the command result as JSON. It exists as the
// thinnest possible stand-in for the HTTP/JSON frontend the engine itself
// does not implement, useful for manual testing and scripted scenarios.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	goccyjson "github.com/goccy/go-json"

	"github.com/iamNilotpal/tuntundb/pkg/options"
	"github.com/iamNilotpal/tuntundb/pkg/tuntundb"
)

func main() {
	dataDir := flag.String("data-dir", options.DefaultDataDir, "directory tuntundb stores table files under")
	queryFile := flag.String("query", "", "path to a JSON query object; reads stdin if unset")
	flag.Parse()

	if err := run(*dataDir, *queryFile); err != nil {
		log.Fatal(err)
	}
}

func run(dataDir, queryFile string) error {
	raw, err := readQuery(queryFile)
	if err != nil {
		return fmt.Errorf("tuntundb: reading query: %w", err)
	}

	var q map[string]any
	if err := goccyjson.Unmarshal(raw, &q); err != nil {
		return fmt.Errorf("tuntundb: parsing query: %w", err)
	}

	ctx := context.Background()
	instance, err := tuntundb.Open(ctx, "tuntundb-cli", options.WithDataDir(dataDir))
	if err != nil {
		return fmt.Errorf("tuntundb: opening instance: %w", err)
	}
	defer instance.Close(ctx)

	result, err := instance.ExecuteQuery(ctx, q)
	if err != nil {
		return fmt.Errorf("tuntundb: executing query: %w", err)
	}

	out, err := goccyjson.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("tuntundb: encoding result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func readQuery(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
