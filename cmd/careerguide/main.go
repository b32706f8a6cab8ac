// Command careerguide is the career guidance assistant.
package main

import (
	"fmt"
	"os"

	"github.com/gamedevCloudy/career-guide-agent/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
