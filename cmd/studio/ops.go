package main

import (
	"context"
	"net/http"

	rpcadapter "github.com/atvirokodosprendimai/studio/internal/adapters/rpcjson"
	"github.com/urfave/cli/v3"
)

// invoke sends one named operation over the configured transport.
func invoke(ctx context.Context, c *cli.Command, op string, params any, out any) error {
	cfg, err := configFrom(c)
	if err != nil {
		return err
	}
	return invokeWith(ctx, cfg, op, params, out)
}

func invokeWith(ctx context.Context, cfg cliConfig, op string, params any, out any) error {
	if cfg.Transport == transportUDS {
		return rpcadapter.NewClient(cfg.Socket).Call(ctx, op, params, out)
	}
	if params == nil {
		params = struct{}{}
	}
	return newAPIClient(cfg.Server).request(ctx, http.MethodPost, "/api/"+op, params, out)
}

func listOps(ctx context.Context, cfg cliConfig) ([]string, error) {
	var out struct {
		Operations []string `json:"operations"`
	}
	if err := newAPIClient(cfg.Server).request(ctx, http.MethodGet, "/api/ops", nil, &out); err != nil {
		return nil, err
	}
	return out.Operations, nil
}
