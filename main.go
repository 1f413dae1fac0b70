package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ollama/textstream/cmd"
	"github.com/ollama/textstream/envconfig"
	"github.com/ollama/textstream/logutil"
)

func main() {
	// .env im Arbeitsverzeichnis ist optional
	_ = godotenv.Load()

	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	cobra.CheckErr(cmd.NewCLI().ExecuteContext(context.Background()))
}
