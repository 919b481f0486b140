package main

import "github.com/genmcp/browser-mcp/pkg/cli"

// version is set at build time with -ldflags "-X main.version=...".
var version string

func main() {
	cli.Execute(version)
}
