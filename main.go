// feedsim publishes a sequenced price feed over an unreliable broadcast channel and recovers
// the messages lost on the way from a recovery server.
package main

import (
	"fmt"
	"os"

	"github.com/spacemeshos/go-feedsim/cmd"
	"github.com/spacemeshos/go-feedsim/node"
)

var (
	version string
	commit  string
	branch  string
)

func main() { // run the app
	cmd.Version = version
	cmd.Commit = commit
	cmd.Branch = branch
	if err := node.GetCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
