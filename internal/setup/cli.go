package setup

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

// CLI runs the "setup" subcommand of the MCP server binary.
type CLI struct {
	out io.Writer
}

// NewCLI creates a setup CLI writing to out.
func NewCLI(out io.Writer) *CLI {
	return &CLI{out: out}
}

// Run executes the setup command based on the provided arguments.
func (c *CLI) Run(args []string) error {
	if len(args) == 0 {
		c.showHelp()
		return nil
	}

	switch args[0] {
	case "register":
		return c.register(args[1:])
	case "status":
		return c.showStatus(args[1:])
	case "help", "--help", "-h":
		c.showHelp()
		return nil
	default:
		c.showHelp()
		return fmt.Errorf("unknown setup command: %s", args[0])
	}
}

func (c *CLI) showHelp() {
	fmt.Fprint(c.out, `
Congenital Syphilis MCP Server Setup

Usage:
  mcp-server-lite setup <command> [options]

Commands:
  register   Add this server to the desktop client's mcpServers config
  status     Show registration and dataset status

Options:
  --client-config PATH   Client config file (default: per-OS desktop client location)
  --binary PATH          Server binary (register only; default: this executable)
  --data-dir DIR         CSCALC_DATA_DIR for the server (register only)
  --dataset-source NAME  embedded, file, http, or sqlite (register only)
  --dataset-path PATH    Dataset file or SQLite path (register only)
  --dataset-url URL      Dataset URL (register only)
`)
}

func (c *CLI) register(args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(c.out)

	opts := Options{}
	fs.StringVar(&opts.ConfigPath, "client-config", "", "client config file")
	fs.StringVar(&opts.BinaryPath, "binary", "", "server binary")
	fs.StringVar(&opts.DataDir, "data-dir", "", "data directory")
	fs.StringVar(&opts.DatasetSource, "dataset-source", "", "dataset source")
	fs.StringVar(&opts.DatasetPath, "dataset-path", "", "dataset path")
	fs.StringVar(&opts.DatasetURL, "dataset-url", "", "dataset url")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.BinaryPath == "" {
		if execPath, err := os.Executable(); err == nil {
			opts.BinaryPath = execPath
		}
	}

	path, err := Register(opts)
	if err != nil {
		return fmt.Errorf("failed to register server: %w", err)
	}

	fmt.Fprintf(c.out, "Registered %s in %s\n", ServerKey, path)
	fmt.Fprintf(c.out, "Server binary: %s\n", opts.BinaryPath)
	fmt.Fprintln(c.out, "Restart the client to load the new configuration.")
	return nil
}

func (c *CLI) showStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(c.out)
	configPath := fs.String("client-config", "", "client config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	status, err := GetStatus(*configPath)
	if err != nil {
		return err
	}

	mark := func(ok bool) string {
		if ok {
			return "yes"
		}
		return "no"
	}

	fmt.Fprintf(c.out, "Client config:  %s\n", status.ConfigPath)
	fmt.Fprintf(c.out, "Registered:     %s\n", mark(status.Registered))
	if status.Registered {
		fmt.Fprintf(c.out, "Binary:         %s (found: %s)\n", status.BinaryPath, mark(status.BinaryFound))
	}
	fmt.Fprintf(c.out, "Data directory: %s\n", status.DataDir)
	fmt.Fprintf(c.out, "Dataset source: %s\n", status.DatasetSource)
	if status.DatasetSource == domain.DatasetSourceSQLite {
		fmt.Fprintf(c.out, "SQLite ready:   %s\n", mark(status.SQLiteReady))
	}
	for _, issue := range status.Issues {
		fmt.Fprintf(c.out, "  ! %s\n", issue)
	}
	return nil
}
