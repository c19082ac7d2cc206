package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/RowanDark/0xcrack/internal/cipher"
	"github.com/RowanDark/0xcrack/internal/rpc"
)

func runOps(args []string) int {
	fs := newFlagSet("ops")
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var ops []cipher.OperationInfo
	if addr := strings.TrimSpace(*common.remote); addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := rpc.Dial(addr, *common.token)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ops: %v\n", err)
			return 1
		}
		defer client.Close()
		if ops, err = client.ListOperations(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "ops: %v\n", err)
			return 1
		}
	} else {
		ops = cipher.ListOperationInfo()
	}

	if *common.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ops); err != nil {
			fmt.Fprintf(os.Stderr, "encode operations: %v\n", err)
			return 1
		}
		return 0
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tPARAMS\tDESCRIPTION")
	for _, op := range ops {
		params := strings.Join(op.Params, ",")
		if params == "" {
			params = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.Name, op.Type, params, op.Description)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "write operations: %v\n", err)
		return 1
	}
	return 0
}
