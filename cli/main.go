// ABOUTME: Entry point for shopauth-cli
// ABOUTME: Delegates to the cobra command tree in cmd/

package main

import (
	"fmt"
	"os"

	"github.com/commercekit/shopauth/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
