package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/RowanDark/0xcrack/internal/analysis"
	"github.com/RowanDark/0xcrack/internal/cipher"
	"github.com/RowanDark/0xcrack/internal/env"
	"github.com/RowanDark/0xcrack/internal/rpc"
)

// commonFlags are shared by every command that runs an operation.
type commonFlags struct {
	in      *string
	asJSON  *bool
	remote  *string
	token   *string
	timeout *time.Duration
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	token, _ := env.LookupSuffix("API_TOKEN")
	remote, _ := env.LookupSuffix("REMOTE")
	return &commonFlags{
		in:      fs.String("in", "", "read input from file (use - for stdin)"),
		asJSON:  fs.Bool("json", false, "print the report as JSON"),
		remote:  fs.String("remote", remote, "execute through the gRPC service at host:port"),
		token:   fs.String("token", token, "bearer token for --remote"),
		timeout: fs.Duration("timeout", 30*time.Second, "operation timeout"),
	}
}

// input returns the text to analyse: positional arguments joined by spaces,
// then --in, then stdin.
func (f *commonFlags) input(fs *flag.FlagSet) (string, error) {
	if fs.NArg() > 0 {
		if strings.TrimSpace(*f.in) != "" {
			return "", errors.New("pass input either as arguments or with --in, not both")
		}
		return strings.Join(fs.Args(), " "), nil
	}
	path := strings.TrimSpace(*f.in)
	var (
		data []byte
		err  error
	)
	switch path {
	case "", "-":
		data, err = io.ReadAll(os.Stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func (f *commonFlags) execute(operation, input string, params map[string]any) (*cipher.Report, error) {
	ctx := context.Background()
	if *f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *f.timeout)
		defer cancel()
	}

	if addr := strings.TrimSpace(*f.remote); addr != "" {
		client, err := rpc.Dial(addr, *f.token)
		if err != nil {
			return nil, err
		}
		defer client.Close()
		return client.Execute(ctx, operation, input, params)
	}
	return analysis.NewExecutor(nil).Execute(ctx, "", operation, input, params)
}

// report runs operation and prints the result, returning the exit code.
func (f *commonFlags) report(command, operation, input string, params map[string]any) int {
	report, err := f.execute(operation, input, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", command, err)
		return 1
	}
	if *f.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "encode report: %v\n", err)
			return 1
		}
		return 0
	}
	renderReport(os.Stdout, report)
	return 0
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}
