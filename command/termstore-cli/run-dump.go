// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/termstore/chronicle"
)

var errDumpLimit = errors.New("dump limit reached")

func runDump(c *cli.Context) error {

	s := getSession(c)

	assemblage, err := parseComponent(s.store, s.concepts, c.String("assemblage"))
	if nil != err {
		return err
	}
	count := c.Int("count")
	if count < 0 {
		return fmt.Errorf("invalid count: %d", count)
	}

	if s.verbose {
		fmt.Fprintf(s.e, "assemblage: %s  count: %d\n", assemblage, count)
	}

	items := make([]*chronicleItem, 0)
	err = s.store.ForEachChronicleOfAssemblage(context.Background(), assemblage, func(ch *chronicle.Chronicle) error {
		item, err := renderChronicle(s.store, s.concepts, ch)
		if nil != err {
			return err
		}
		items = append(items, item)
		if 0 != count && len(items) >= count {
			return errDumpLimit
		}
		return nil
	})
	if nil != err && errDumpLimit != err {
		return err
	}

	return printJson(s.w, items)
}
