// Command texbench benchmarks the RGB565 decoders.
//
// Usage:
//
//	texbench [flags] <dim>
//
// dim is the side of the square test image and must be a positive multiple
// of 4. Each report line gives the mean decode time of the kernel, scalar
// and vector paths over the last window.
package main

import (
	"os"

	"github.com/gogpu/texdecode/cmd/texbench/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
