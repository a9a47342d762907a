package main

import "github.com/mcoot/powerup-ledger/internal/cli"

func main() {
	cli.Execute()
}
