// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package metrics_test

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/termstore/metrics"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", metrics.Outcome(nil))
	assert.Equal(t, "error", metrics.Outcome(errors.New("x")))
}

func TestCounterLabels(t *testing.T) {
	c := metrics.StorageOperations.WithLabelValues("get", "ok")
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
