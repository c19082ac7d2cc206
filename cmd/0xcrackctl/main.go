package main

import (
	"flag"
	"fmt"
	"os"
)

const productName = "0xcrack"
const cliBanner = productName + " CLI (0xcrackctl)"

var showVersion = flag.Bool("version", false, "print version and exit")

func init() {
	defaultUsage := flag.Usage
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintln(out, cliBanner)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Commands:")
		fmt.Fprintln(out, "  caesar [--key N]           brute-force or decrypt a Caesar shift")
		fmt.Fprintln(out, "  chisquare                  pick the shift closest to English")
		fmt.Fprintln(out, "  affine [--a A --b B]       recover or apply an affine key")
		fmt.Fprintln(out, "  kasiski                    estimate the Vigenère key length")
		fmt.Fprintln(out, "  vigenere --key KEY         decrypt with a Vigenère keyword")
		fmt.Fprintln(out, "  playfair --key PHRASE      decrypt with a Playfair key phrase")
		fmt.Fprintln(out, "  frequency                  letter frequency chart")
		fmt.Fprintln(out, "  encrypt --cipher NAME      encrypt with caesar|affine|vigenere|playfair")
		fmt.Fprintln(out, "  ops                        list registered operations")
		fmt.Fprintln(out, "  batch --in jobs.jsonl      run a JSONL job file")
		fmt.Fprintln(out, "  config show                print the resolved configuration")
		fmt.Fprintln(out, "  api-token new              request a signed API token")
		fmt.Fprintln(out, "  version                    print the version")
		fmt.Fprintln(out)
		if defaultUsage != nil {
			defaultUsage()
		}
	}
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(versionString())
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(run(args))
}

func run(args []string) int {
	switch args[0] {
	case "caesar":
		return runCaesar(args[1:])
	case "chisquare":
		return runAnalysis("chisquare", "chi_square_shift", args[1:])
	case "affine":
		return runAffine(args[1:])
	case "kasiski":
		return runAnalysis("kasiski", "kasiski", args[1:])
	case "vigenere":
		return runKeyed("vigenere", "vigenere_decrypt", args[1:])
	case "playfair":
		return runKeyed("playfair", "playfair_decrypt", args[1:])
	case "frequency":
		return runAnalysis("frequency", "frequency", args[1:])
	case "encrypt":
		return runEncrypt(args[1:])
	case "ops":
		return runOps(args[1:])
	case "batch":
		return runBatch(args[1:])
	case "config":
		return runConfig(args[1:])
	case "api-token":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "api-token subcommand required")
			return 2
		}
		switch args[1] {
		case "new":
			return runAPITokenNew(args[2:])
		default:
			fmt.Fprintf(os.Stderr, "unknown api-token subcommand: %s\n", args[1])
			return 2
		}
	case "version":
		return runVersion(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		flag.Usage()
		return 2
	}
}
