// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/gogpu/texdecode"
)

// rgb565Template is the versioned RGB565 decode kernel.
//
//go:embed shaders/rgb565.wgsl.tmpl
var rgb565Template string

// ProgramLabel is the label of the RGB565 decode program in logs, errors
// and shader dumps.
const ProgramLabel = "rgb565_decode"

// ErrTileSize is returned for tile sizes the kernel cannot decode. A tile
// row is one 64-bit source word, so only 4 is supported.
var ErrTileSize = errors.New("kernel: tile size must be 4")

var rgb565Tmpl = template.Must(template.New("rgb565").Option("missingkey=error").Parse(rgb565Template))

// templateParams are the substitution points of a kernel template.
type templateParams struct {
	TileSize int
}

// Source renders the WGSL kernel for format and tileSize. Failures are
// returned as *texdecode.CompileError.
func Source(format texdecode.Format, tileSize int) (string, error) {
	if format != texdecode.FormatRGB565 {
		return "", &texdecode.CompileError{
			Label: ProgramLabel,
			Err:   fmt.Errorf("%w: %v", texdecode.ErrUnsupportedFormat, format),
		}
	}
	if tileSize != texdecode.TileSize {
		return "", &texdecode.CompileError{Label: ProgramLabel, Err: ErrTileSize}
	}

	var sb strings.Builder
	if err := rgb565Tmpl.Execute(&sb, templateParams{TileSize: tileSize}); err != nil {
		return "", &texdecode.CompileError{Label: ProgramLabel, Err: err}
	}
	return sb.String(), nil
}
