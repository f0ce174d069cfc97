// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/urfave/cli"
)

func runCompact(c *cli.Context) error {

	s := getSession(c)

	if s.verbose {
		fmt.Fprintf(s.e, "compacting: %s\n", s.config.Database.Directory)
	}
	if err := s.store.Compact(); nil != err {
		return err
	}
	fmt.Fprintf(s.w, "compacted\n")
	return nil
}
