package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nexuscore/agent/internal/mcp"
)

// MCPServerEntry is one server as it appears in mcp_servers.json (spec.md
// §6). Unlike mcp.ServerConfig (the runtime shape the manager connects
// with), this is the on-disk wire shape: a bare command/args/env plus an
// enabled flag and free-text description. The yaml tags mirror the json
// ones (the same field names the teacher's own mcp.ServerConfig tags with
// both `yaml:"..."` and `json:"..."`) so the same struct reads either the
// canonical JSON file or a YAML dev-profile variant.
type MCPServerEntry struct {
	Command     string            `json:"command" yaml:"command"`
	Args        []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env         map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Enabled     *bool             `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
}

// IsEnabled reports whether the server is enabled, defaulting to true when
// the field was omitted.
func (e MCPServerEntry) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// MCPFileConfig is the root document of mcp_servers.json: a map of server
// name to its entry.
type MCPFileConfig struct {
	Servers map[string]MCPServerEntry `json:"servers" yaml:"servers"`
}

// LoadMCPConfig reads and parses path as JSON, the canonical on-disk shape
// per spec.md §6. A missing file is not an error: it returns an empty
// configuration, matching spec.md §6 ("Missing file -> empty config").
// ${VAR} references in args and env values are expanded from the process
// environment; unknown variables expand to the empty string, and an
// unterminated "${" is left intact.
func LoadMCPConfig(path string) (MCPFileConfig, error) {
	return loadMCPConfig(path, json.Unmarshal)
}

// LoadMCPConfigYAML reads and parses path as YAML instead of JSON: a
// dev-profile alternate input format (the same MCPServerEntry/MCPFileConfig
// fields, tagged `yaml:"..."` the way the teacher's mcp.ServerConfig carries
// both json and yaml tags on one struct). The canonical persisted format
// remains JSON; this is for hand-authored local server lists. Expansion and
// missing-file handling match LoadMCPConfig exactly.
func LoadMCPConfigYAML(path string) (MCPFileConfig, error) {
	return loadMCPConfig(path, yaml.Unmarshal)
}

// LoadMCPConfigAuto dispatches to LoadMCPConfigYAML for a ".yaml"/".yml"
// extension and LoadMCPConfig otherwise, so a caller accepting a
// user-supplied config path does not need to know the format up front.
func LoadMCPConfigAuto(path string) (MCPFileConfig, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadMCPConfigYAML(path)
	default:
		return LoadMCPConfig(path)
	}
}

func loadMCPConfig(path string, unmarshal func([]byte, any) error) (MCPFileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return MCPFileConfig{Servers: map[string]MCPServerEntry{}}, nil
		}
		return MCPFileConfig{}, err
	}

	var raw MCPFileConfig
	if err := unmarshal(data, &raw); err != nil {
		return MCPFileConfig{}, err
	}
	if raw.Servers == nil {
		raw.Servers = map[string]MCPServerEntry{}
	}

	for name, entry := range raw.Servers {
		for i, a := range entry.Args {
			entry.Args[i] = expandVars(a)
		}
		if entry.Env != nil {
			expanded := make(map[string]string, len(entry.Env))
			for k, v := range entry.Env {
				expanded[k] = expandVars(v)
			}
			entry.Env = expanded
		}
		raw.Servers[name] = entry
	}
	return raw, nil
}

// SaveMCPConfig writes cfg to path as pretty-printed JSON, creating parent
// directories as needed. Values are written back literally (including any
// "${VAR}" references) since expansion is load-only per spec.md §6.
func SaveMCPConfig(path string, cfg MCPFileConfig) error {
	if cfg.Servers == nil {
		cfg.Servers = map[string]MCPServerEntry{}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ToServerConfigs converts the file config into the runtime ServerConfig
// list the mcp.Manager connects with, naming each server's ID and Name after
// its map key and treating Enabled as AutoStart.
func (c MCPFileConfig) ToServerConfigs() []*mcp.ServerConfig {
	out := make([]*mcp.ServerConfig, 0, len(c.Servers))
	for name, entry := range c.Servers {
		out = append(out, &mcp.ServerConfig{
			ID:        name,
			Name:      name,
			Transport: mcp.TransportStdio,
			Command:   entry.Command,
			Args:      entry.Args,
			Env:       entry.Env,
			AutoStart: entry.IsEnabled(),
		})
	}
	return out
}

// expandVars expands "${VAR}" references using the process environment.
// Unknown variables expand to "". A "$" not followed by "{" is left
// untouched (this file format only ever emits the braced form), and an
// unterminated "${" (no matching "}") is left intact rather than consumed.
func expandVars(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '{' {
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				// Unterminated "${": leave the rest of the string intact.
				b.WriteString(s[i:])
				break
			}
			name := s[i+2 : i+2+end]
			b.WriteString(os.Getenv(name))
			i += 2 + end + 1
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}
