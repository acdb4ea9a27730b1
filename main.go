package main

import (
	"mcpblast/cmd"
)

func main() {
	cmd.Execute()
}
