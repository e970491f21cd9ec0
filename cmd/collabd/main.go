// Command collabd is the reference relay used to demonstrate and integration
// test collabcore's TextEngine and WhiteboardEngine against real WebSocket
// traffic. It is not a product: see pkg/registry's package doc for the scope
// this intentionally leaves out.
package main

import (
	"fmt"
	"os"
)

// buildVersion is overridden at build time via -ldflags "-X main.buildVersion=...".
var buildVersion = "dev"

func main() {
	SetVersion(buildVersion)
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
