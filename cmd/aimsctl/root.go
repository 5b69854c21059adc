package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// RootCommand creates and returns the root command
func RootCommand() *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:           "aimsctl",
		Short:         "AIMS offline tools",
		Long:          `Run inventory matching and sales feature assembly against local JSON files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log matching decisions")

	rootCmd.AddCommand(
		featuresCommand(),
		matchCommand(&debug),
		identifiersCommand(&debug),
		predictCommand(),
	)

	return rootCmd
}

// readJSONFile decodes path into out; "-" reads standard input
func readJSONFile(cmd *cobra.Command, path string, out interface{}) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
