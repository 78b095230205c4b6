package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BioHazard786/chessrelay/internal/lobby"
	"github.com/BioHazard786/chessrelay/internal/protocol"
)

// Default configuration values
const (
	DefaultAddr           = ":3001"
	DefaultAllowedOrigins = "*"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultServerURL      = "ws://localhost:3001/ws"
)

var ErrInvalidServerURL = errors.New("invalid server url")

// Server holds the relay server configuration.
type Server struct {
	Addr              string              `yaml:"addr"`
	AllowedOrigins    []string            `yaml:"allowed_origins"`
	Cleanup           lobby.CleanupPolicy `yaml:"cleanup"`
	NATSURL           string              `yaml:"nats_url"`
	NATSSubjectPrefix string              `yaml:"nats_subject_prefix"`
	LogLevel          string              `yaml:"log_level"`
	LogFormat         string              `yaml:"log_format"`
}

// ServerOptions carries CLI flag overrides. Empty fields are unset.
type ServerOptions struct {
	ConfigFile     string
	Addr           string
	AllowedOrigins string
	Cleanup        string
	NATSURL        string
	LogLevel       string
	LogFormat      string
}

// LoadServer reads configuration with the following priority:
// 1. CLI flags (passed via ServerOptions) - highest priority
// 2. Environment variables
// 3. YAML file (--config or CHESSRELAY_CONFIG)
// 4. Hardcoded defaults - lowest priority
func LoadServer(opts ServerOptions) (*Server, error) {
	var file Server
	if path := firstNonEmpty(opts.ConfigFile, os.Getenv("CHESSRELAY_CONFIG")); path != "" {
		if err := readYAML(path, &file); err != nil {
			return nil, err
		}
	}

	cfg := &Server{
		Addr:              firstNonEmpty(opts.Addr, os.Getenv("CHESSRELAY_ADDR"), file.Addr, DefaultAddr),
		NATSURL:           firstNonEmpty(opts.NATSURL, os.Getenv("NATS_URL"), file.NATSURL),
		NATSSubjectPrefix: firstNonEmpty(os.Getenv("NATS_SUBJECT_PREFIX"), file.NATSSubjectPrefix),
		LogLevel:          firstNonEmpty(opts.LogLevel, os.Getenv("LOG_LEVEL"), file.LogLevel, DefaultLogLevel),
		LogFormat:         firstNonEmpty(opts.LogFormat, os.Getenv("LOG_FORMAT"), file.LogFormat, DefaultLogFormat),
	}

	// Origins: flag > env come as comma separated lists, the file as a list.
	origins := firstNonEmpty(opts.AllowedOrigins, os.Getenv("CHESSRELAY_ALLOWED_ORIGINS"))
	switch {
	case origins != "":
		cfg.AllowedOrigins = splitList(origins)
	case len(file.AllowedOrigins) > 0:
		cfg.AllowedOrigins = file.AllowedOrigins
	default:
		cfg.AllowedOrigins = []string{DefaultAllowedOrigins}
	}

	policy, err := lobby.ParseCleanupPolicy(
		firstNonEmpty(opts.Cleanup, os.Getenv("CHESSRELAY_CLEANUP"), string(file.Cleanup)))
	if err != nil {
		return nil, err
	}
	cfg.Cleanup = policy

	return cfg, nil
}

// Client holds the player CLI configuration.
type Client struct {
	// ServerURL is the websocket endpoint, e.g. ws://localhost:3001/ws
	ServerURL string

	// Codec is the wire codec name negotiated with the server.
	Codec string
}

// ClientOptions for loading config with CLI flag overrides
type ClientOptions struct {
	Server string
	Codec  string
}

// LoadClient reads configuration with the following priority:
// 1. CLI flags (passed via ClientOptions) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func LoadClient(opts ClientOptions) (*Client, error) {
	server := firstNonEmpty(opts.Server, os.Getenv("CHESSRELAY_SERVER"), DefaultServerURL)
	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidServerURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("%w: scheme must be ws or wss, got %q", ErrInvalidServerURL, u.Scheme)
	}

	codec, err := protocol.LookupCodec(firstNonEmpty(opts.Codec, os.Getenv("CHESSRELAY_CODEC")))
	if err != nil {
		return nil, err
	}

	return &Client{ServerURL: server, Codec: codec.Name()}, nil
}

// StatsURL returns the HTTP stats endpoint served next to the websocket.
func (c *Client) StatsURL() string {
	u, _ := url.Parse(c.ServerURL)
	if u.Scheme == "wss" {
		u.Scheme = "https"
	} else {
		u.Scheme = "http"
	}
	u.Path = "/stats"
	u.RawQuery = ""
	return u.String()
}

func readYAML(path string, out *Server) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
