package config

import (
	"flag"
	"os"
)

// parses CLI flags for the server binary
func ParseServerFlags() Flags {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	path := fs.String("config", "", "path to a TOML config file (overrides $CODEAGENT_CONFIG)")
	port := fs.Int("port", -1, "listen port, 0 lets the OS choose (overrides $PORT)")
	fs.Parse(os.Args[1:]) //nolint:errcheck,gosec // G104: ExitOnError flag set handles errors

	return Flags{ConfigPath: *path, Port: *port}
}

// parses CLI flags for the console client
func ParseTUIFlags() Flags {
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	path := fs.String("config", "", "path to a TOML config file (overrides $CODEAGENT_CONFIG)")
	session := fs.String("session", "console", "session ID used with -server and shown in the status bar")
	server := fs.String("server", "", "websocket URL of a running server, e.g. ws://localhost:8080/api/v1/ws")
	fs.Parse(os.Args[1:]) //nolint:errcheck,gosec // G104: ExitOnError flag set handles errors

	return Flags{ConfigPath: *path, Port: -1, SessionID: *session, ServerURL: *server}
}

// applies flag overrides that were explicitly set
func (c *Config) ApplyFlags(f Flags) {
	if f.Port >= 0 {
		c.Server.Port = f.Port
	}
}
