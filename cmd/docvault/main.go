package main

import (
	"github.com/chronicle-labs/docvault/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
