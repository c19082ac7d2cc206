package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/RowanDark/0xcrack/internal/config"
)

func runConfig(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "config subcommand required")
		return 2
	}

	switch args[0] {
	case "show", "print":
		return runConfigShow(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func runConfigShow(args []string) int {
	fs := newFlagSet("config show")
	file := fs.String("file", "", "load this file instead of the default search path")
	reveal := fs.Bool("reveal", false, "print credentials unmasked")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var (
		cfg config.Config
		err error
	)
	if path := strings.TrimSpace(*file); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	if err := printResolvedConfig(os.Stdout, cfg, *reveal); err != nil {
		fmt.Fprintf(os.Stderr, "render config: %v\n", err)
		return 1
	}
	return 0
}

func printResolvedConfig(out io.Writer, cfg config.Config, reveal bool) error {
	if !reveal {
		cfg = cfg.Masked()
	}
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
