package version

// set at build time with -ldflags "-X codeberg.org/codeagent/server/internal/version.Version=..."
var Version = "dev"
