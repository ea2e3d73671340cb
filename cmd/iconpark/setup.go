package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// serverName is the key iconpark is registered under in agent configs.
const serverName = "iconpark"

type agentMethod int

const (
	methodCLI agentMethod = iota
	methodFile
)

// agentDef describes how to detect and configure one MCP-capable agent.
type agentDef struct {
	ID          string
	DisplayName string
	Method      agentMethod
	Binary      string        // CLI agents: binary on PATH
	DirMarkers  []string      // file agents: directories that indicate presence
	ConfigPath  func() string // file agents: resolved config file
	ServersKey  string        // "servers" for VS Code, "mcpServers" elsewhere
	ExtraFields map[string]string
}

type detectedAgent struct {
	Def          agentDef
	ConfigPath   string
	AlreadySetup bool
}

// launchSpec is the command an agent runs to start the server.
type launchSpec struct {
	Command string
	Args    []string
}

type setupOptions struct {
	auto   bool
	dryRun bool
	launch launchSpec
}

// Replaceable for testing.
var (
	lookPathFunc = exec.LookPath
	statFunc     = os.Stat
	runCommand   = func(w io.Writer, name string, args ...string) error {
		cmd := exec.Command(name, args...)
		cmd.Stdout = w
		cmd.Stderr = w
		return cmd.Run()
	}
)

var agentRegistry = []agentDef{
	{ID: "claude_code", DisplayName: "Claude Code", Method: methodCLI, Binary: "claude"},
	{ID: "openai_codex", DisplayName: "OpenAI Codex", Method: methodCLI, Binary: "codex"},
	{
		ID: "vscode_copilot", DisplayName: "VS Code Copilot", Method: methodFile,
		DirMarkers:  []string{".vscode"},
		ConfigPath:  func() string { return filepath.Join(".vscode", "mcp.json") },
		ServersKey:  "servers",
		ExtraFields: map[string]string{"type": "stdio"},
	},
	{
		ID: "cursor", DisplayName: "Cursor", Method: methodFile,
		DirMarkers: []string{".cursor"},
		ConfigPath: func() string { return filepath.Join(".cursor", "mcp.json") },
		ServersKey: "mcpServers",
	},
	{
		ID: "claude_desktop", DisplayName: "Claude Desktop", Method: methodFile,
		ConfigPath: desktopConfigPath,
		ServersKey: "mcpServers",
	},
}

func desktopConfigPath() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Claude", "claude_desktop_config.json")
	default:
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json")
	}
}

func newSetupCmd(a *app) *cobra.Command {
	var opts setupOptions
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the iconpark MCP server with detected AI agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.launch = a.launchSpec()
			executeSetup(cmd.InOrStdin(), a.stdout, opts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.auto, "auto", false, "configure every detected agent without prompting")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the changes without writing them")
	return cmd
}

// launchSpec returns the serve command for the current configuration. Custom
// icon locations are made absolute so agents can start the server from any
// directory.
func (a *app) launchSpec() launchSpec {
	spec := launchSpec{Command: serverName, Args: []string{"serve"}}
	abs := func(p string) string {
		if v, err := filepath.Abs(p); err == nil {
			return v
		}
		return p
	}
	if a.cfg.CatalogPath != "" {
		spec.Args = append(spec.Args, "--catalog", abs(a.cfg.CatalogPath))
	}
	if a.cfg.IconsDir != "" {
		spec.Args = append(spec.Args, "--icons", abs(a.cfg.IconsDir))
		spec.Args = append(spec.Args, "--watch")
	}
	return spec
}

func detectAgents() []detectedAgent {
	var detected []detectedAgent
	for _, def := range agentRegistry {
		switch def.Method {
		case methodCLI:
			if _, err := lookPathFunc(def.Binary); err == nil {
				detected = append(detected, detectedAgent{
					Def:          def,
					AlreadySetup: hasServer(".mcp.json", "mcpServers"),
				})
			}
		case methodFile:
			path, ok := locateFileAgent(def)
			if ok {
				detected = append(detected, detectedAgent{
					Def:          def,
					ConfigPath:   path,
					AlreadySetup: hasServer(path, def.ServersKey),
				})
			}
		}
	}
	return detected
}

// locateFileAgent reports whether a file agent is present and where its
// config lives. Agents without directory markers are present when the
// config's parent directory exists.
func locateFileAgent(def agentDef) (string, bool) {
	for _, marker := range def.DirMarkers {
		if _, err := statFunc(marker); err == nil {
			return def.ConfigPath(), true
		}
	}
	if len(def.DirMarkers) > 0 {
		return "", false
	}
	path := def.ConfigPath()
	if _, err := statFunc(filepath.Dir(path)); err != nil {
		return "", false
	}
	return path, true
}

func hasServer(path, serversKey string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var config map[string]any
	if err := json.Unmarshal(data, &config); err != nil {
		return false
	}
	servers, _ := config[serversKey].(map[string]any)
	_, ok := servers[serverName]
	return ok
}

func serverEntry(launch launchSpec, extra map[string]string) map[string]any {
	args := make([]any, len(launch.Args))
	for i, a := range launch.Args {
		args[i] = a
	}
	entry := map[string]any{
		"command": launch.Command,
		"args":    args,
	}
	for k, v := range extra {
		entry[k] = v
	}
	return entry
}

// mergeServerEntry adds the iconpark entry under serversKey to the JSON
// document in existing, preserving everything else. It returns nil, nil when
// the entry is already present.
func mergeServerEntry(existing []byte, serversKey string, launch launchSpec, extra map[string]string) ([]byte, error) {
	config := make(map[string]any)
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &config); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	servers, ok := config[serversKey].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	if _, exists := servers[serverName]; exists {
		return nil, nil
	}
	servers[serverName] = serverEntry(launch, extra)
	config[serversKey] = servers

	out, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func cliArgs(scope string, launch launchSpec) []string {
	args := []string{"mcp", "add"}
	if scope != "" {
		args = append(args, "--scope", scope)
	}
	args = append(args, serverName, "--", launch.Command)
	return append(args, launch.Args...)
}

func configureFileAgent(def agentDef, configPath string, launch launchSpec) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	existing, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", configPath, err)
	}
	merged, err := mergeServerEntry(existing, def.ServersKey, launch, def.ExtraFields)
	if err != nil || merged == nil {
		return err
	}
	return os.WriteFile(configPath, merged, 0o644)
}

// --- prompts ---

// promptYesNo reads Y/n; empty input and EOF mean yes.
func promptYesNo(r *bufio.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s ", question)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return true
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "" || answer == "y" || answer == "yes"
}

// promptScope returns "project", "user", or "" to skip.
func promptScope(r *bufio.Reader, w io.Writer, agentName string) string {
	fmt.Fprintf(w, "\n%s: add the iconpark MCP server?\n", agentName)
	fmt.Fprintln(w, "  [1] Project scope (shared with team)")
	fmt.Fprintln(w, "  [2] User scope (personal, global)")
	fmt.Fprintln(w, "  [3] Skip")
	fmt.Fprint(w, "  > ")

	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "project"
	}
	switch strings.TrimSpace(line) {
	case "1", "":
		return "project"
	case "2":
		return "user"
	default:
		return ""
	}
}

// --- orchestration ---

func executeSetup(in io.Reader, w io.Writer, opts setupOptions) {
	r := bufio.NewReader(in)

	detected := detectAgents()
	if len(detected) == 0 {
		fmt.Fprintln(w, "No supported AI agents detected.")
		return
	}

	fmt.Fprintln(w, "Detected AI agents:")
	for _, d := range detected {
		if d.AlreadySetup {
			fmt.Fprintf(w, "  * %s (already configured)\n", d.Def.DisplayName)
		} else {
			fmt.Fprintf(w, "  * %s\n", d.Def.DisplayName)
		}
	}
	fmt.Fprintf(w, "\nServer command: %s %s\n\n", opts.launch.Command, strings.Join(opts.launch.Args, " "))

	if !opts.auto && !promptYesNo(r, w, "Configure agents? [Y/n]") {
		return
	}

	for _, d := range detected {
		if d.AlreadySetup {
			fmt.Fprintf(w, "\n%s: already configured, skipping\n", d.Def.DisplayName)
			continue
		}
		configureAgent(r, w, d, opts)
	}
}

func configureAgent(r *bufio.Reader, w io.Writer, d detectedAgent, opts setupOptions) {
	name := d.Def.DisplayName
	switch d.Def.Method {
	case methodCLI:
		scope := "project"
		if !opts.auto {
			if scope = promptScope(r, w, name); scope == "" {
				fmt.Fprintln(w, "  skipped")
				return
			}
		}
		args := cliArgs(scope, opts.launch)
		if opts.dryRun {
			fmt.Fprintf(w, "  would run: %s %s\n", d.Def.Binary, strings.Join(args, " "))
			return
		}
		if err := runCommand(w, d.Def.Binary, args...); err != nil {
			fmt.Fprintf(w, "  ! %s: failed: %v\n", name, err)
			return
		}
		fmt.Fprintf(w, "  + %s configured (scope: %s)\n", name, scope)

	case methodFile:
		if !opts.auto && !promptYesNo(r, w, fmt.Sprintf("\n%s: add to %s? [Y/n]", name, d.ConfigPath)) {
			fmt.Fprintln(w, "  skipped")
			return
		}
		if opts.dryRun {
			fmt.Fprintf(w, "  would update: %s\n", d.ConfigPath)
			return
		}
		if err := configureFileAgent(d.Def, d.ConfigPath, opts.launch); err != nil {
			fmt.Fprintf(w, "  ! %s: failed: %v\n", name, err)
			return
		}
		fmt.Fprintf(w, "  + %s configured (%s)\n", name, d.ConfigPath)
	}
}
