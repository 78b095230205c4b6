package main

import (
	"github.com/BioHazard786/chessrelay/internal/cmd"
	"github.com/BioHazard786/chessrelay/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cmd.Execute()
}
