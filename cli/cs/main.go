package main

import (
	"errors"
	"fmt"
	"os"

	cscmder "github.com/composable-science/cli/cmd/cs"
	"github.com/composable-science/cli/pkg/pipeline"
)

func main() {
	cmd := cscmder.NewCSCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var exitErr *pipeline.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
