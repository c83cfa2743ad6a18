package main

import (
	"newsdive/cmd/cmd"
	"newsdive/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
