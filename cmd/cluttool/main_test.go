// seehuhn.de/go/clut - convert colour lookup tables
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seehuhn.de/go/clut"
)

func runTool(args ...string) (int, string, string) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(context.Background(), args, stdout, stderr)
	return code, stdout.String(), stderr.String()
}

func writeCube(t *testing.T, dir, name string, l *clut.Lattice) string {
	t.Helper()
	fname := filepath.Join(dir, name)
	fd, err := os.Create(fname)
	require.NoError(t, err)
	require.NoError(t, clut.EncodeCube(fd, l, nil))
	require.NoError(t, fd.Close())
	return fname
}

func TestUsage(t *testing.T) {
	code, _, stderr := runTool()
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "usage:")

	code, _, stderr = runTool("frobnicate")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "unknown command")

	code, stdout, _ := runTool("help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "cluttool convert")

	code, _, _ = runTool("convert", "-h")
	assert.Equal(t, 0, code)
}

func TestFormats(t *testing.T) {
	code, stdout, _ := runTool("formats")
	require.Equal(t, 0, code)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Len(t, lines, len(clut.Formats()))
	assert.Contains(t, stdout, ".cube")
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	src := writeCube(t, dir, "in.cube", clut.Identity(3, 5))
	dst := filepath.Join(dir, "out.3dl")

	code, stdout, stderr := runTool("convert", "-bits", "10", "-v", src, dst)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "cube -> 3dl")

	fd, err := os.Open(dst)
	require.NoError(t, err)
	defer fd.Close()
	l, meta, err := clut.Decode3DL(fd)
	require.NoError(t, err)
	assert.Equal(t, 10, meta.BitDepth)
	d, err := clut.Compare(clut.Identity(3, 5), l)
	require.NoError(t, err)
	assert.Less(t, d.MaxChannel, 0.5/1023+1e-9)
}

func TestConvertToFlag(t *testing.T) {
	dir := t.TempDir()
	src := writeCube(t, dir, "in.cube", clut.Identity(3, 5))
	dst := filepath.Join(dir, "out.bin")

	code, _, stderr := runTool("convert", "-to", "hald", "-hald-bits", "8", src, dst)
	require.Equal(t, 0, code, stderr)

	fd, err := os.Open(dst)
	require.NoError(t, err)
	defer fd.Close()
	l, meta, err := clut.DecodeHald(fd)
	require.NoError(t, err)
	assert.Equal(t, 4, l.Size())
	assert.Equal(t, 8, meta.BitDepth)
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()
	src := writeCube(t, dir, "in.cube", clut.Identity(3, 2))
	bad := filepath.Join(dir, "bad.cube")
	require.NoError(t, os.WriteFile(bad, []byte("LUT_3D_SIZE 2\n1 2\n"), 0o644))

	cases := []struct {
		name string
		args []string
		code int
	}{
		{"one argument", []string{"convert", src}, exitUsage},
		{"unknown flag", []string{"convert", "-frob", src, "x.3dl"}, exitUsage},
		{"bad format", []string{"convert", "-to", "csp", src, "x.3dl"}, exitUsage},
		{"bad kernel", []string{"convert", "-interp", "cubic", src, filepath.Join(dir, "x.3dl")}, exitUsage},
		{"malformed", []string{"convert", bad, filepath.Join(dir, "x.3dl")}, exitFailure},
		{"unknown extension", []string{"convert", src, filepath.Join(dir, "x.csp")}, exitFailure},
		{"missing source", []string{"convert", filepath.Join(dir, "nope.cube"), filepath.Join(dir, "x.3dl")}, exitFailure},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			code, _, _ := runTool(c.args...)
			assert.Equal(t, c.code, code)
		})
	}
	_, err := os.Stat(filepath.Join(dir, "x.3dl"))
	assert.True(t, os.IsNotExist(err), "partial output written")
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(out, 0o755))
	a := writeCube(t, dir, "a.cube", clut.Identity(3, 3))
	b := writeCube(t, dir, "b.cube", clut.Identity(1, 16))

	code, stdout, stderr := runTool("batch", "-to", "3dl", "-out", out, "-j", "2", a, b)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "ok   "+a)
	for _, name := range []string{"a.3dl", "b.3dl"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err)
	}

	bad := filepath.Join(dir, "bad.cube")
	require.NoError(t, os.WriteFile(bad, []byte("garbage\n"), 0o644))
	code, stdout, _ = runTool("batch", "-to", "3dl", "-out", out, a, bad)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stdout, "FAIL "+bad)

	code, _, _ = runTool("batch", "-to", "3dl", a)
	assert.Equal(t, exitUsage, code)
}

func TestGenerateAndDiff(t *testing.T) {
	dir := t.TempDir()
	js := filepath.Join(dir, "invert.js")
	require.NoError(t, os.WriteFile(js,
		[]byte("function transform(r, g, b) { return [1-r, 1-g, 1-b]; }"), 0o644))

	identity := filepath.Join(dir, "identity.cube")
	code, _, stderr := runTool("generate", "-size", "9", identity)
	require.Equal(t, 0, code, stderr)

	inverted := filepath.Join(dir, "inverted.icc")
	code, _, stderr = runTool("generate", "-script", js, "-size", "9", inverted)
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr := runTool("diff", identity, identity)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "max channel:  0.000000")
	assert.Contains(t, stdout, "points:       729")

	code, stdout, stderr = runTool("diff", identity, inverted)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "max channel:  1.000000")

	code, _, _ = runTool("generate", "-script", filepath.Join(dir, "missing.js"), identity)
	assert.Equal(t, exitFailure, code)

	before, err := os.ReadFile(identity)
	require.NoError(t, err)
	bad := filepath.Join(dir, "bad.js")
	require.NoError(t, os.WriteFile(bad, []byte("function transform() { return 1; }"), 0o644))
	code, _, _ = runTool("generate", "-script", bad, "-size", "9", identity)
	assert.Equal(t, exitFailure, code)
	after, err := os.ReadFile(identity)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
