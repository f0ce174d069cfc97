// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coordinate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/fault"
)

// Resolved - result of one unit of a parallel resolution
type Resolved struct {
	Chronicle *chronicle.Chronicle
	Version   chronicle.Version
	Found     bool
}

// ParallelLatest - latest visible version of every chronicle
//
// one unit of work per chronicle, at most workers at a time; the
// context is checked before each unit and the first error stops the
// remaining units
func (calc *Calculator) ParallelLatest(ctx context.Context, chronicles []*chronicle.Chronicle, workers int) ([]Resolved, error) {
	if workers <= 0 {
		return nil, fault.InvalidCount
	}
	results := make([]Resolved, len(chronicles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range chronicles {
		i, c := i, c
		g.Go(func() error {
			if nil != gctx.Err() {
				return fault.CancelledByContext
			}
			v, found, err := calc.Latest(c)
			if nil != err {
				return err
			}
			results[i] = Resolved{Chronicle: c, Version: v, Found: found}
			return nil
		})
	}
	if err := g.Wait(); nil != err {
		return nil, err
	}
	if nil != ctx.Err() {
		return nil, fault.CancelledByContext
	}
	return results, nil
}
