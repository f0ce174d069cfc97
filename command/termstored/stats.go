// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"runtime"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/classifier"
)

const (
	statsDelay = 60 * time.Second
	mega       = 1048576
)

// background process logging memory use
type memoryStats struct {
	log    *logger.L
	worker *classifier.Worker
}

func (m *memoryStats) Run(args interface{}, shutdown <-chan struct{}) {
	log := m.log
	delay := time.After(0)
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-delay:
			var s runtime.MemStats
			runtime.ReadMemStats(&s)
			log.Infof("allocated: %d M  cumulative: %d M  OS virtual: %d M  gc: %d", s.Alloc/mega, s.TotalAlloc/mega, s.Sys/mega, s.NumGC)
			if nil != m.worker {
				log.Infof("classification requests waiting: %d", m.worker.Waiting())
			}
			delay = time.After(statsDelay)
		}
	}
}
