package main

import "github.com/agentic-research/garden/cmd"

func main() {
	cmd.Execute()
}
