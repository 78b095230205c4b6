package cmd

import (
	"context"

	"github.com/BioHazard786/chessrelay/internal/config"
	"github.com/BioHazard786/chessrelay/internal/gameclient"
	"github.com/BioHazard786/chessrelay/internal/protocol"
)

// ConnectionContext bundles an open relay connection with its message router.
type ConnectionContext struct {
	Client     *gameclient.Client
	Handler    *gameclient.Handler
	Config     *config.Client
	Assignment gameclient.Assignment
}

func LoadConfig() (*config.Client, error) {
	cfg, err := config.LoadClient(config.ClientOptions{
		Server: flagServer,
		Codec:  flagCodec,
	})
	if err != nil {
		return nil, gameclient.NewError("load config", err)
	}
	return cfg, nil
}

func NewConnectionContext(ctx context.Context, cfg *config.Client) (*ConnectionContext, error) {
	codec, err := protocol.LookupCodec(cfg.Codec)
	if err != nil {
		return nil, err
	}

	client := gameclient.NewClient(cfg.ServerURL, codec)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	handler := gameclient.NewHandler(client)
	go handler.Start()

	return &ConnectionContext{
		Client:  client,
		Handler: handler,
		Config:  cfg,
	}, nil
}

func (c *ConnectionContext) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}
