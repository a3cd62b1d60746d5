// Command ccl drives the distributed connected-components engine.
package main

import (
	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/cmd/cli/cmd"
)

func main() {
	cmd.Execute()
}
