// Command figurelens is the entry point for the recognition engine: the API
// server and the offline extract/analyze/recognize tools.
package main

import (
	"os"

	"github.com/turtacn/FigureLens/internal/interfaces/cli"
)

func main() {
	os.Exit(cli.Execute())
}
