package main

import (
	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/cmd/commands"
)

func main() {
	commands.Execute()
}
