package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the engine over the Model Context Protocol",
	Long: `Run an MCP server exposing the desktop as typed tools. The stdio
transport speaks MCP over stdin/stdout for agent runtimes that spawn
the process; streamable-http listens on --port. Tree reads are served
from a short-lived cache between tool calls, and every write action
invalidates the trees of the process it touched.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "", "Transport: stdio or streamable-http (config default: stdio)")
	serveCmd.Flags().Int("port", 0, "Port for streamable-http (config default: 8080)")
	serveCmd.Flags().Int("cache-ttl", -1, "Tree cache TTL in milliseconds, 0 disables (config default: 500)")
}

func runServe(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	serveCfg := cfg.Serve
	if transport, _ := cmd.Flags().GetString("transport"); transport != "" {
		serveCfg.Transport = transport
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		serveCfg.Port = port
	}
	if ttl, _ := cmd.Flags().GetInt("cache-ttl"); ttl >= 0 {
		serveCfg.CacheTTLMs = ttl
	}

	build, err := cfg.Capture.TreeConfig()
	if err != nil {
		return err
	}

	s := server.New(desk, server.Config{
		Transport: serveCfg.Transport,
		Port:      serveCfg.Port,
		CacheTTL:  serveCfg.CacheTTL(),
		Tree:      build,
		Version:   version,
		Logger:    logger,
	})
	return s.Serve()
}
