package main

import "github.com/emiliopalmerini/agentlab/internal/cli"

func main() {
	cli.Execute()
}
