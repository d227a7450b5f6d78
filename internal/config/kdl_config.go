package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/usersoap/internal/debug"
)

// LoadKDL attempts to load configuration from a KDL file.
// Returns nil, nil when the file does not exist.
func LoadKDL(path string) (*Config, error) {
	if !fileExists(path) {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return parseKDL(string(content))
}

// parseKDL overlays the settings found in content on top of the defaults
func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "server":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "addr":
					if s, ok := firstStringArg(cn); ok {
						cfg.Server.Addr = s
					}
				case "read_timeout_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Server.ReadTimeoutMs = v
					}
				case "write_timeout_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Server.WriteTimeoutMs = v
					}
				case "shutdown_timeout_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Server.ShutdownTimeoutMs = v
					}
				case "max_body_bytes":
					if v, ok := firstIntArg(cn); ok {
						cfg.Server.MaxBodyBytes = int64(v)
					}
					if s, ok := firstStringArg(cn); ok {
						size, err := parseSize(s)
						if err != nil {
							return nil, fmt.Errorf("invalid server.max_body_bytes %q: %w", s, err)
						}
						cfg.Server.MaxBodyBytes = size
					}
				default:
					debug.Log("CONFIG", "ignoring unknown server key %q", nodeName(cn))
				}
			}
		case "store":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "backend", "path", "dsn":
					assignSimpleString(cn, "backend", func(v string) { cfg.Store.Backend = strings.ToLower(v) })
					assignSimpleString(cn, "path", func(v string) { cfg.Store.Path = v })
					assignSimpleString(cn, "dsn", func(v string) { cfg.Store.DSN = v })
				case "watch":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Store.Watch = b
					}
				default:
					debug.Log("CONFIG", "ignoring unknown store key %q", nodeName(cn))
				}
			}
		case "log":
			for _, cn := range n.Children {
				assignSimpleString(cn, "level", func(v string) { cfg.Log.Level = strings.ToLower(v) })
				assignSimpleString(cn, "format", func(v string) { cfg.Log.Format = strings.ToLower(v) })
			}
		case "telemetry":
			for _, cn := range n.Children {
				if nodeName(cn) == "enabled" {
					if b, ok := firstBoolArg(cn); ok {
						cfg.Telemetry.Enabled = b
					}
				}
			}
		default:
			debug.Log("CONFIG", "ignoring unknown section %q", nodeName(n))
		}
	}

	return cfg, nil
}

// Helper functions over the kdl-go document model
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}
