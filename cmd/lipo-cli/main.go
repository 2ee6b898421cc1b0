package main

import "github.com/lipo-groupgen/cmd/lipo-cli/cmd"

func main() {
	cmd.Execute()
}
