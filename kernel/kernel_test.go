// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gogpu/naga"

	"github.com/gogpu/texdecode"
	"github.com/gogpu/texdecode/backend"
	"github.com/gogpu/texdecode/backend/wgpu"
	"github.com/gogpu/texdecode/gpucore"
)

func randomSource(t *testing.T, width, height int, seed uint64) texdecode.EncodedBuffer {
	t.Helper()
	src := texdecode.NewEncodedBuffer(width, height)
	rng := rand.New(rand.NewPCG(seed, 42))
	for i := range src {
		src[i] = byte(rng.Uint32())
	}
	return src
}

func newSoftwareDevice(t *testing.T) *backend.SoftwareDevice {
	t.Helper()
	d := backend.NewSoftwareDevice(4)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestSourceRenders(t *testing.T) {
	src, err := Source(texdecode.FormatRGB565, 4)
	if err != nil {
		t.Fatalf("Source() error = %v", err)
	}
	if !strings.Contains(src, "const TILE_SIZE: u32 = 4u;") {
		t.Error("tile size not substituted")
	}
	if strings.Contains(src, "{{") {
		t.Error("unrendered template action in output")
	}
	for _, fn := range []string{"fn convert5to8", "fn convert6to8", "fn decode_texel", "fn main"} {
		if !strings.Contains(src, fn) {
			t.Errorf("source missing %q", fn)
		}
	}
}

func TestSourceCompilesWithNaga(t *testing.T) {
	src, err := Source(texdecode.FormatRGB565, texdecode.TileSize)
	if err != nil {
		t.Fatal(err)
	}
	spirv, err := naga.Compile(src)
	if err != nil {
		t.Fatalf("naga.Compile() error = %v", err)
	}
	if len(spirv) == 0 || len(spirv)%4 != 0 {
		t.Errorf("SPIR-V length = %d, want non-zero multiple of 4", len(spirv))
	}
}

func TestSourceErrors(t *testing.T) {
	tests := []struct {
		name     string
		format   texdecode.Format
		tileSize int
		wantErr  error
	}{
		{"unknown format", texdecode.Format(99), 4, texdecode.ErrUnsupportedFormat},
		{"tile size 8", texdecode.FormatRGB565, 8, ErrTileSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Source(tt.format, tt.tileSize)
			var cerr *texdecode.CompileError
			if !errors.As(err, &cerr) {
				t.Fatalf("err = %v, want *CompileError", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTileWordOffset(t *testing.T) {
	// 16 texels wide: 4 tiles per row, 4 words per tile.
	const tilesX = 4
	tests := []struct {
		id   [3]uint32
		row  uint32
		want uint32
	}{
		{[3]uint32{0, 0, 0}, 0, 0},
		{[3]uint32{0, 0, 0}, 3, 3},
		{[3]uint32{1, 0, 0}, 0, 4},
		{[3]uint32{3, 0, 0}, 2, 14},
		{[3]uint32{0, 1, 0}, 0, 16},
		{[3]uint32{2, 3, 0}, 1, 57},
	}
	for _, tt := range tests {
		tile := TileFor(tt.id)
		if got := tile.WordOffset(tt.row, tilesX); got != tt.want {
			t.Errorf("tile %v row %d: WordOffset = %d, want %d", tile, tt.row, got, tt.want)
		}
	}
}

// TestSourceFormulas pins the kernel's addressing and texel expressions to
// the host rendition in tile.go.
func TestSourceFormulas(t *testing.T) {
	src, err := Source(texdecode.FormatRGB565, texdecode.TileSize)
	if err != nil {
		t.Fatal(err)
	}
	for _, expr := range []string{
		"let start = id.xy * TILE_SIZE;",
		"enc_buf[start.y * params.tiles_x + start.x + row]",
		"let base = (start.y + row) * params.width + start.x;",
		"((v & 0xFFu) << 8u) | ((v >> 8u) & 0xFFu)",
		"(v << 3u) | (v >> 2u)",
		"(v << 2u) | (v >> 4u)",
		"r | (g << 8u) | (b << 16u) | 0xFF000000u",
	} {
		if !strings.Contains(src, expr) {
			t.Errorf("kernel source missing %q", expr)
		}
	}

	// start.y*tiles_x + start.x + row is the tile-major word index:
	// four words per tile, tiles in row order.
	for _, tilesX := range []uint32{1, 2, 5, 64} {
		for ty := uint32(0); ty < 4; ty++ {
			for tx := uint32(0); tx < tilesX; tx++ {
				tile := TileFor([3]uint32{tx, ty, 0})
				for row := uint32(0); row < texdecode.TileSize; row++ {
					want := (ty*tilesX+tx)*texdecode.TileSize + row
					if got := tile.WordOffset(row, tilesX); got != want {
						t.Fatalf("tilesX %d tile (%d,%d) row %d: WordOffset = %d, want %d",
							tilesX, tx, ty, row, got, want)
					}
				}
			}
		}
	}

	for raw := uint32(0); raw <= 0xFFFF; raw++ {
		c := (raw&0xFF)<<8 | (raw>>8)&0xFF
		r5, g6, b5 := c>>11&0x1F, c>>5&0x3F, c&0x1F
		r := r5<<3 | r5>>2
		g := g6<<2 | g6>>4
		b := b5<<3 | b5>>2
		want := r | g<<8 | b<<16 | 0xFF000000
		if got := decodeTexel(raw); got != want {
			t.Fatalf("decodeTexel(%#04x) = %#08x, want %#08x", raw, got, want)
		}
	}
}

func TestInvokeTileMatchesScalar(t *testing.T) {
	const w, h = 8, 8
	src := randomSource(t, w, h, 3)
	want := texdecode.NewDecodedBuffer(w, h)
	if err := texdecode.DecodeScalar(want, src, w, h); err != nil {
		t.Fatal(err)
	}

	got := texdecode.NewDecodedBuffer(w, h)
	bindings := []gpucore.HostBinding{
		{Data: Params{Width: w, Height: h, TilesX: w / 4}.Bytes()},
		{Data: src},
		{Pixels: got},
	}
	for ty := uint32(0); ty < h/4; ty++ {
		for tx := uint32(0); tx < w/4; tx++ {
			InvokeTile([3]uint32{tx, ty, 0}, bindings)
		}
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pixel %d = %#08x, want %#08x", i, got[i], want[i])
		}
	}
}

func TestSoftwareKernelEquivalence(t *testing.T) {
	dev := newSoftwareDevice(t)
	cache := NewProgramCache(dev)
	defer cache.Close()

	sizes := []struct{ w, h int }{{4, 4}, {8, 4}, {16, 8}, {64, 64}, {256, 128}}
	for _, sz := range sizes {
		dec, err := New(dev, sz.w, sz.h, WithProgramCache(cache))
		if err != nil {
			t.Fatalf("%dx%d: New() error = %v", sz.w, sz.h, err)
		}
		src := randomSource(t, sz.w, sz.h, uint64(sz.w*sz.h))

		stats, err := dec.Decode(src)
		if err != nil {
			t.Fatalf("%dx%d: Decode() error = %v", sz.w, sz.h, err)
		}
		if want := uint64(sz.w * sz.h / 16); stats.Workgroups != want {
			t.Errorf("%dx%d: Workgroups = %d, want %d", sz.w, sz.h, stats.Workgroups, want)
		}

		got := texdecode.NewDecodedBuffer(sz.w, sz.h)
		if err := dec.Readback(got); err != nil {
			t.Fatal(err)
		}
		scalar := texdecode.NewDecodedBuffer(sz.w, sz.h)
		vector := texdecode.NewDecodedBuffer(sz.w, sz.h)
		_ = texdecode.DecodeScalar(scalar, src, sz.w, sz.h)
		_ = texdecode.DecodeVector(vector, src, sz.w, sz.h)
		for i := range scalar {
			if got[i] != scalar[i] || got[i] != vector[i] {
				t.Fatalf("%dx%d pixel %d: kernel=%#08x scalar=%#08x vector=%#08x",
					sz.w, sz.h, i, got[i], scalar[i], vector[i])
			}
		}
		dec.Close()
	}
	if cache.Len() != 1 {
		t.Errorf("cache.Len() = %d, want 1", cache.Len())
	}
}

func TestKernelTileBoundary(t *testing.T) {
	dev := newSoftwareDevice(t)
	dec, err := New(dev, 8, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	src := texdecode.NewEncodedBuffer(8, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			v := uint16(0xF800)
			if x >= 4 {
				v = 0x001F
			}
			src.PutTexel(x, y, 8, v)
		}
	}
	if _, err := dec.Decode(src); err != nil {
		t.Fatal(err)
	}
	got := texdecode.NewDecodedBuffer(8, 4)
	if err := dec.Readback(got); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			want := uint32(0xFF0000FF)
			if x >= 4 {
				want = 0xFFFF0000
			}
			if p := got[y*8+x]; p != want {
				t.Errorf("(%d,%d) = %#08x, want %#08x", x, y, p, want)
			}
		}
	}
}

// countingDevice counts CompileProgram calls and can fail them.
type countingDevice struct {
	gpucore.Device
	compiles atomic.Int32
	fail     error
}

func (d *countingDevice) CompileProgram(src gpucore.ProgramSource) (gpucore.ProgramID, error) {
	d.compiles.Add(1)
	if d.fail != nil {
		return gpucore.InvalidID, &texdecode.CompileError{Label: src.Label, Source: src.WGSL, Err: d.fail}
	}
	return d.Device.CompileProgram(src)
}

func TestProgramCacheCompilesOnce(t *testing.T) {
	dev := &countingDevice{Device: newSoftwareDevice(t)}
	cache := NewProgramCache(dev)
	defer cache.Close()

	var wg sync.WaitGroup
	ids := make([]gpucore.ProgramID, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := cache.Program(texdecode.FormatRGB565)
			if err != nil {
				t.Errorf("Program() error = %v", err)
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	if n := dev.compiles.Load(); n != 1 {
		t.Errorf("CompileProgram called %d times, want 1", n)
	}
	for i := range ids {
		if ids[i] != ids[0] {
			t.Fatalf("ids[%d] = %d, ids[0] = %d", i, ids[i], ids[0])
		}
	}

	// A second decoder sharing the cache reuses the program.
	for i := 0; i < 2; i++ {
		dec, err := New(dev, 8, 8, WithProgramCache(cache))
		if err != nil {
			t.Fatal(err)
		}
		dec.Close()
	}
	if n := dev.compiles.Load(); n != 1 {
		t.Errorf("CompileProgram called %d times after decoders, want 1", n)
	}
}

func TestCompileFailureIsCachedAndDumped(t *testing.T) {
	boom := errors.New("driver rejected shader")
	dev := &countingDevice{Device: newSoftwareDevice(t), fail: boom}
	dir := t.TempDir()

	_, err := New(dev, 8, 8, WithShaderDumpDir(dir))
	var cerr *texdecode.CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("New() err = %v, want *CompileError", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, does not wrap %v", err, boom)
	}

	dumped, rerr := os.ReadFile(filepath.Join(dir, "bad_"+ProgramLabel+".wgsl"))
	if rerr != nil {
		t.Fatalf("shader dump missing: %v", rerr)
	}
	if !strings.Contains(string(dumped), "fn decode_texel") {
		t.Error("dumped file does not hold the kernel source")
	}

	cache := NewProgramCache(dev)
	for i := 0; i < 3; i++ {
		if _, err := cache.Program(texdecode.FormatRGB565); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: err = %v", i, err)
		}
	}
	// One compile from New, one from the fresh cache; retries hit the cache.
	if n := dev.compiles.Load(); n != 2 {
		t.Errorf("CompileProgram called %d times, want 2", n)
	}
}

func TestNewRejectsInvalidDimensions(t *testing.T) {
	dev := newSoftwareDevice(t)
	for _, dim := range [][2]int{{0, 4}, {6, 4}, {4, 7}} {
		_, err := New(dev, dim[0], dim[1])
		if !errors.Is(err, texdecode.ErrInvalidDimensions) {
			t.Errorf("New(%d, %d) err = %v, want ErrInvalidDimensions", dim[0], dim[1], err)
		}
	}
}

func TestDecodeRejectsWrongSourceSize(t *testing.T) {
	dev := newSoftwareDevice(t)
	dec, err := New(dev, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	if _, err := dec.Decode(make(texdecode.EncodedBuffer, 10)); !errors.Is(err, texdecode.ErrBufferSize) {
		t.Errorf("Decode(short) err = %v, want ErrBufferSize", err)
	}
	if err := dec.Readback(make(texdecode.DecodedBuffer, 3)); !errors.Is(err, texdecode.ErrBufferSize) {
		t.Errorf("Readback(short) err = %v, want ErrBufferSize", err)
	}
}

func TestDecodeIdempotentOnDevice(t *testing.T) {
	dev := newSoftwareDevice(t)
	dec, err := New(dev, 16, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	src := randomSource(t, 16, 16, 9)
	first := texdecode.NewDecodedBuffer(16, 16)
	second := texdecode.NewDecodedBuffer(16, 16)
	for _, dst := range []texdecode.DecodedBuffer{first, second} {
		if _, err := dec.Decode(src); err != nil {
			t.Fatal(err)
		}
		if err := dec.Readback(dst); err != nil {
			t.Fatal(err)
		}
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("pixel %d differs between runs", i)
		}
	}
}

func TestNoopDeviceFlow(t *testing.T) {
	s, err := wgpu.OpenNoop()
	if err != nil {
		t.Fatal(err)
	}
	dev := wgpu.NewDevice(s, true)
	defer dev.Close()

	dec, err := New(dev, 32, 32)
	if err != nil {
		t.Fatalf("New() on noop device: %v", err)
	}
	defer dec.Close()

	if g := dec.Groups(); g != [3]uint32{8, 8, 1} {
		t.Errorf("Groups() = %v, want [8 8 1]", g)
	}
	if _, err := dec.Decode(texdecode.NewEncodedBuffer(32, 32)); err != nil {
		t.Errorf("Decode() on noop device: %v", err)
	}
	if err := dec.Readback(texdecode.NewDecodedBuffer(32, 32)); err != nil {
		t.Errorf("Readback() on noop device: %v", err)
	}
}

func TestParamsBytes(t *testing.T) {
	b := Params{Width: 1024, Height: 512, TilesX: 256}.Bytes()
	if len(b) != ParamsSize {
		t.Fatalf("len = %d, want %d", len(b), ParamsSize)
	}
	if got := paramsFrom(b); got != (Params{Width: 1024, Height: 512, TilesX: 256}) {
		t.Errorf("paramsFrom(Bytes()) = %+v", got)
	}
}
