package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// ConfigFileName is looked up in the project directory.
const ConfigFileName = ".declscan.kdl"

// loadKDL overlays cfg with values from dir/.declscan.kdl. A missing file
// leaves cfg untouched.
func loadKDL(cfg *Config, dir string) error {
	path := filepath.Join(dir, ConfigFileName)
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return parseKDL(cfg, string(content))
}

func parseKDL(cfg *Config, content string) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "scan":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Scan.Workers = v
					}
				case "output_file":
					if s, ok := firstStringArg(cn); ok {
						cfg.Scan.OutputFile = s
					}
				case "worker_file_prefix":
					if s, ok := firstStringArg(cn); ok {
						cfg.Scan.WorkerFilePrefix = s
					}
				case "worker_file_ext":
					if s, ok := firstStringArg(cn); ok {
						cfg.Scan.WorkerFileExt = s
					}
				case "keep_worker_files":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Scan.KeepWorkerFiles = b
					}
				case "watch_debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Scan.WatchDebounceMs = v
					}
				}
			}
		case "match":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "target":
					if s, ok := firstStringArg(cn); ok {
						cfg.Match.Target = s
					}
				case "variadic":
					if vals := collectStringArgs(cn); len(vals) > 0 {
						cfg.Match.Variadic = vals
					}
				}
			}
		case "include":
			cfg.Include = collectStringArgs(n)
		case "exclude":
			cfg.Exclude = append(cfg.Exclude, collectStringArgs(n)...)
		}
	}
	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
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

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

// collectStringArgs gathers strings from inline arguments or, for block
// format like exclude { "pattern" }, from child nodes.
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
