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

	"golang.org/x/sync/errgroup"

	"seehuhn.de/go/clut/observability"
)

// Job describes one file conversion of a batch.
type Job struct {
	Src, Dst string

	// From and To give the formats of the files.  If a format is empty,
	// it is determined from the file name extension.
	From, To Format
}

// JobResult reports the outcome of a single job.
type JobResult struct {
	Job    Job
	Result *Result
	Err    error
}

// BatchOptions controls [RunBatch].
type BatchOptions struct {
	// Workers is the maximum number of concurrent conversions.
	// The default is 4.
	Workers int

	// FailFast stops the batch at the first failed job.  Jobs which
	// have not yet started are skipped, and the error of the failed job
	// is returned.
	FailFast bool

	// Options configures the conversions.
	Options *Options
}

// RunBatch converts a number of independent files concurrently.
//
// The returned slice has one entry per job, in the order of jobs.  Without
// FailFast, the errors of individual jobs are only reported in the
// results, and the returned error is non-nil only if ctx is cancelled.
func RunBatch(ctx context.Context, jobs []Job, opts *BatchOptions) ([]JobResult, error) {
	workers := 4
	failFast := false
	var convOpts *Options
	if opts != nil {
		if opts.Workers > 0 {
			workers = opts.Workers
		}
		failFast = opts.FailFast
		convOpts = opts.Options
	}
	log := convOpts.withDefaults().Logger

	results := make([]JobResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		results[i].Job = job
		if gctx.Err() != nil {
			results[i].Err = gctx.Err()
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			res, err := runJob(job, convOpts)
			results[i].Result = res
			results[i].Err = err
			if err != nil {
				log.Warn("job failed",
					observability.String("src", job.Src),
					observability.Error("err", err))
				if failFast {
					return err
				}
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return results, err
}

func runJob(job Job, opts *Options) (*Result, error) {
	from, to := job.From, job.To
	var err error
	if from == "" {
		from, err = FormatFromPath(job.Src)
		if err != nil {
			return nil, err
		}
	}
	if to == "" {
		to, err = FormatFromPath(job.Dst)
		if err != nil {
			return nil, err
		}
	}
	c, err := NewConverter(from, to, opts)
	if err != nil {
		return nil, err
	}
	return c.ConvertFile(job.Src, job.Dst)
}
