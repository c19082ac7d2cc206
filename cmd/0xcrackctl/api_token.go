package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/RowanDark/0xcrack/internal/api"
	"github.com/RowanDark/0xcrack/internal/config"
)

func runAPITokenNew(args []string) int {
	fs := newFlagSet("api-token new")
	subject := fs.String("subject", "cli-client", "subject claim for the issued token")
	audience := fs.String("audience", "0xcrack-cli", "audience claim for the issued token")
	ttl := fs.Duration("ttl", time.Hour, "requested token lifetime")
	endpoint := fs.String("endpoint", "", "API base URL (default derived from api.addr)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	base := strings.TrimSpace(*endpoint)
	if base == "" {
		base = endpointFromAddr(cfg.API.Addr)
	}
	if strings.TrimSpace(cfg.Auth.StaticToken) == "" {
		fmt.Fprintln(os.Stderr, "auth.static_token is not configured; set it in 0xcrack.yml or via OXCRACK_AUTH_TOKEN")
		return 1
	}

	sub := strings.TrimSpace(*subject)
	if sub == "" {
		fmt.Fprintln(os.Stderr, "--subject must not be empty")
		return 2
	}
	aud := strings.TrimSpace(*audience)
	if aud == "" {
		aud = "0xcrack-cli"
	}
	if *ttl <= 0 {
		*ttl = time.Hour
	}

	body, err := json.Marshal(map[string]any{
		"subject":     sub,
		"audience":    aud,
		"ttl_seconds": ttl.Seconds(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode request: %v\n", err)
		return 1
	}

	url := strings.TrimRight(base, "/") + "/api/v1/api-tokens"
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "build request: %v\n", err)
		return 1
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.StaticTokenHeader, cfg.Auth.StaticToken)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "request api token: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		message := strings.TrimSpace(apiErr.Error)
		if message == "" {
			message = resp.Status
		}
		fmt.Fprintf(os.Stderr, "api rejected request: %s\n", message)
		return 1
	}

	var result struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		fmt.Fprintf(os.Stderr, "decode response: %v\n", err)
		return 1
	}
	token := strings.TrimSpace(result.Token)
	if token == "" {
		fmt.Fprintln(os.Stderr, "api returned empty token")
		return 1
	}
	fmt.Fprintln(os.Stdout, token)
	if trimmed := strings.TrimSpace(result.ExpiresAt); trimmed != "" {
		fmt.Fprintf(os.Stdout, "expires_at: %s\n", trimmed)
	}
	return 0
}

// endpointFromAddr turns a listen address into a loopback URL.
func endpointFromAddr(addr string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return "http://" + strings.TrimSpace(addr)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
