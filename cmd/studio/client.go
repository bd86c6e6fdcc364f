package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
)

const (
	transportUDS  = "uds"
	transportHTTP = "http"
)

type cliConfig struct {
	Transport string
	Server    string
	Socket    string
}

func clientFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "transport", Value: transportUDS, Usage: "uds or http", Sources: cli.EnvVars("STUDIO_TRANSPORT")},
		&cli.StringFlag{Name: "socket", Value: "/tmp/studio.sock", Usage: "JSON-RPC unix socket path", Sources: cli.EnvVars("STUDIO_RPC_SOCKET")},
		&cli.StringFlag{Name: "server", Value: "http://127.0.0.1:8787", Usage: "HTTP base URL", Sources: cli.EnvVars("STUDIO_SERVER")},
		&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
	}
}

func configFrom(c *cli.Command) (cliConfig, error) {
	cfg := cliConfig{
		Transport: strings.ToLower(strings.TrimSpace(c.String("transport"))),
		Server:    c.String("server"),
		Socket:    c.String("socket"),
	}
	switch cfg.Transport {
	case transportUDS, transportHTTP:
		return cfg, nil
	default:
		return cliConfig{}, fmt.Errorf("unknown transport %q, want uds or http", cfg.Transport)
	}
}

type apiClient struct {
	httpClient *http.Client
	server     string
}

func newAPIClient(server string) *apiClient {
	return &apiClient{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		server:     strings.TrimRight(server, "/"),
	}
}

func (c *apiClient) request(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.server+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		payload, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("api error (%d %s): %s", resp.StatusCode, apiErr.Code, apiErr.Error)
		}
		return fmt.Errorf("api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
