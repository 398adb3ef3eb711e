package main

import "github.com/oshokin/clitools/cmd/clitools/cmd"

func main() {
	cmd.Execute()
}
