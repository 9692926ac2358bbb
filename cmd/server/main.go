package main

import (
	"github.com/physiohome/chat-service/cmd"
)

func main() {
	cmd.Execute()
}
