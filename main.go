package main

import (
	"github.com/pmcostaxyz/telegram-chat/cmd"
)

func main() {
	cmd.Execute()
}
