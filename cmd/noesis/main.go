// NOESIS - persona stance versioning
//
// NOESIS keeps a persona's evolving stance under version control: a tree of
// conversation branches with fork, merge and time travel, plus a timeline
// of fingerprinted identity checkpoints.
//
// Components:
//   - stance:   persona data model and diff engine
//   - branch:   branch tree and time travel
//   - identity: checkpoint timeline and core values
//   - noesis:   this command (interactive shell and HTTP API)
package main

import (
	"os"

	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
)

const version = "0.3.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		f := nerrors.DefaultFormatter()
		if noColor {
			f.UseColor = false
		}
		f.Display(err)
		os.Exit(1)
	}
}
