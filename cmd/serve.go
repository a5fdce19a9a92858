package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dgannon/appdriver/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing appdriver tools",
	Long: `Start a Model Context Protocol (MCP) server that exposes the driving
primitives as tools. Unlike one-shot commands, the server keeps its
application registry alive across tool calls.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  appdriver serve
  appdriver serve --transport streamable-http --port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")

	srv := server.New(d.provider, d.cfg, d.log)
	if d.journal != nil {
		srv.SetRecorder(d.journal)
	}
	return srv.Serve(server.Config{Transport: transport, Port: port})
}
