package websocket

// origin policy for websocket upgrades
type UpgraderConfig struct {
	AllowedOrigins []string
	Production     bool
}
