// This program provides a command line client for talking to a node.
package main

import "github.com/pebblechain/pebblechain/app/tooling/cli/cmd"

func main() {
	cmd.Execute()
}
