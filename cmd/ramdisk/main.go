// ramdisk turns a directory tree into an assembler source that embeds every
// file, plus the path, data and size tables a freestanding runtime reads.
package main

import (
	"fmt"
	"os"

	"github.com/corey/ramdisk/cmd/ramdisk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
