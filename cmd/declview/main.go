// Command declview inspects and expands the declarations of .oriz sources.
package main

import (
	"github.com/orizon-lang/declview/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		cli.ExitWithError(err)
	}
}
