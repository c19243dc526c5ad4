// safegit is a protective wrapper around git. Invoke it exactly like git;
// destructive commands are intercepted, analyzed, backed up, and journaled
// before they run.
package main

import (
	"os"

	"github.com/safegit/safegit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
