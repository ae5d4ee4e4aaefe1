package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Capture is the result of running one line with captured output.
type Capture struct {
	Code   int
	Exit   bool
	Stdout string
	Stderr string
}

// Capture runs line with stdin from the null device and stdout and stderr
// collected into temporary files.
func (sh *Shell) Capture(ctx context.Context, line string) (Capture, error) {
	stdin, err := os.Open(os.DevNull)
	if err != nil {
		return Capture{}, err
	}
	defer stdin.Close()

	stdout, err := os.CreateTemp("", "ish-stdout-*")
	if err != nil {
		return Capture{}, err
	}
	defer os.Remove(stdout.Name())
	defer stdout.Close()

	stderr, err := os.CreateTemp("", "ish-stderr-*")
	if err != nil {
		return Capture{}, err
	}
	defer os.Remove(stderr.Name())
	defer stderr.Close()

	code, exit := sh.RunLine(ctx, line, stdin, stdout, stderr)

	out, err := os.ReadFile(stdout.Name())
	if err != nil {
		return Capture{}, err
	}
	errOut, err := os.ReadFile(stderr.Name())
	if err != nil {
		return Capture{}, err
	}
	return Capture{Code: code, Exit: exit, Stdout: string(out), Stderr: string(errOut)}, nil
}

func (c Capture) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "exit_code: %d\n", c.Code)
	if c.Exit {
		b.WriteString("note: exit is disabled in this mode\n")
	}
	b.WriteString("stdout:\n")
	b.WriteString(c.Stdout)
	b.WriteString("stderr:\n")
	b.WriteString(c.Stderr)
	return b.String()
}

// NewMCPServer exposes the shell as an MCP server with a single "run" tool.
func (sh *Shell) NewMCPServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"ish",
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)
	s.AddTools(server.ServerTool{
		Tool: mcp.NewTool("run",
			mcp.WithDescription("Run a shell command line (pipes and redirections allowed) and return its exit code, stdout and stderr. stdin is empty."),
			mcp.WithString("line", mcp.Required(), mcp.Description("Command line to execute, e.g. `ls -l | wc -l`")),
		),
		Handler: sh.handleRun,
	})
	return s
}

func (sh *Shell) handleRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := request.RequireString("line")
	if err != nil {
		return mcp.NewToolResultError("line must be a string: " + err.Error()), nil
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return mcp.NewToolResultError("line is empty"), nil
	}

	sh.log.Info("mcp run", "line", line)
	c, err := sh.Capture(ctx, line)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(c.String()), nil
}

func serveStdio(sh *Shell, version string) error {
	return server.ServeStdio(sh.NewMCPServer(version))
}
