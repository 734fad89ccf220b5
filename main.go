// drawchat is a diagram workspace with an AI chat side panel.
package main

import (
	"fmt"
	"os"

	"drawchat/cmd"
	"drawchat/config"
	"drawchat/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	dir, _ := config.ConfigDir()
	if err := logger.Init(cfg.BuildLoggerConfig(), dir); err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
	}
	cmd.Execute()
}
