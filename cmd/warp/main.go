package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/Checker-Finance/warp/internal/cli"
	"github.com/Checker-Finance/warp/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	defer logger.Sync()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\n%s %v\n\n", color.RedString("Error:"), err)
		logger.Sync()
		os.Exit(1)
	}
}
