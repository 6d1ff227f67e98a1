package main

import (
	"fmt"
	"os"

	"github.com/debemdeboas/yasny-slukh/internal/config"
	"gopkg.in/yaml.v3"
)

const header = `# Yasny Slukh site configuration example
# Copy this file to config.yaml and customize as needed.
# Secrets are read from the environment: ADMIN_PASSPHRASE, DATABASE_URL,
# DATA_MANAGER_API, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY.

`

func main() {
	// Create a config with defaults applied
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}
	output := header + string(yamlData)

	outputFile := "config.example.yaml"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if outputFile == "-" {
		fmt.Print(output)
		return
	}
	if err := os.WriteFile(outputFile, []byte(output), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", outputFile)
}
