package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/roach88/sparkpad/internal/cli"
)

func main() {
	// Optional .env carries SPARKPAD_DB and SPARKPAD_WORKER defaults.
	_ = godotenv.Load()

	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(cli.GetExitCode(err))
	}
}
