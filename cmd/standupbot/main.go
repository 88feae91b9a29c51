package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/standupbot/internal/cli"
	"github.com/tillberg/autorestart"
)

func main() {
	// rebuild-and-restart loop for local development
	if os.Getenv("STANDUPBOT_DEV_RESTART") != "" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
