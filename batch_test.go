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

package clut

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	good := cubeText(t, Identity(3, 4))
	jobs := []Job{
		{Src: writeFile(t, dir, "a.cube", good), Dst: filepath.Join(dir, "a.3dl")},
		{Src: writeFile(t, dir, "b.cube", "LUT_3D_SIZE 2\n"), Dst: filepath.Join(dir, "b.3dl")},
		{Src: writeFile(t, dir, "c.cube", good), Dst: filepath.Join(dir, "c.png"), To: FormatHald},
		{Src: filepath.Join(dir, "d.xyz"), Dst: filepath.Join(dir, "d.3dl")},
	}

	results, err := RunBatch(context.Background(), jobs, &BatchOptions{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(jobs) {
		t.Fatalf("%d results for %d jobs", len(results), len(jobs))
	}
	for i, r := range results {
		if r.Job != jobs[i] {
			t.Errorf("result %d belongs to job %v", i, r.Job)
		}
	}

	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("unexpected errors: %v, %v", results[0].Err, results[2].Err)
	}
	if results[2].Result == nil || results[2].Result.Size != 4 {
		t.Errorf("job c: %+v", results[2].Result)
	}
	var meshErr *MalformedMeshError
	if !errors.As(results[1].Err, &meshErr) {
		t.Errorf("job b: got %v", results[1].Err)
	}
	if results[3].Err == nil {
		t.Error("job d: expected error")
	}

	for _, name := range []string{"a.3dl", "c.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Error(err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "b.3dl")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("b.3dl: %v", err)
	}
}

func TestRunBatchFailFast(t *testing.T) {
	dir := t.TempDir()
	good := cubeText(t, Identity(3, 2))
	jobs := []Job{
		{Src: writeFile(t, dir, "a.cube", "garbage\n"), Dst: filepath.Join(dir, "a.3dl")},
		{Src: writeFile(t, dir, "b.cube", good), Dst: filepath.Join(dir, "b.3dl")},
		{Src: writeFile(t, dir, "c.cube", good), Dst: filepath.Join(dir, "c.3dl")},
	}

	results, err := RunBatch(context.Background(), jobs, &BatchOptions{Workers: 1, FailFast: true})
	var sizeErr *MissingMeshSizeError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("got %v, want MissingMeshSizeError", err)
	}
	if !errors.As(results[0].Err, &sizeErr) {
		t.Errorf("job a: %v", results[0].Err)
	}
	for _, r := range results[1:] {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("%s: got %v, want context.Canceled", r.Job.Src, r.Err)
		}
	}
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{{Src: "a.cube", Dst: "a.3dl"}, {Src: "b.cube", Dst: "b.3dl"}}
	results, err := RunBatch(ctx, jobs, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("%s: got %v", r.Job.Src, r.Err)
		}
	}
}
