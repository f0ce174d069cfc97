// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/datastore"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/metadata"
	"github.com/bitmark-inc/termstore/storage"
)

func TestMain(m *testing.M) {
	directory, err := os.MkdirTemp("", "termstore-cli-log")
	if nil != err {
		panic(fmt.Sprintf("temporary directory failed: %s", err))
	}

	logConfig := logger.Configuration{
		Directory: directory,
		File:      "termstore-cli.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "trace",
		},
	}
	if err := logger.Initialise(logConfig); err != nil {
		panic(fmt.Sprintf("logger initialization failed: %s", err))
	}

	rc := m.Run()

	logger.Finalise()
	os.RemoveAll(directory)
	os.Exit(rc)
}

func setupStore(t *testing.T) (*datastore.Store, *metadata.Concepts) {
	s, err := datastore.Open(storage.Configuration{
		Directory: t.TempDir(),
		Name:      "test",
		Engine:    storage.LevelDB,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Shutdown(false) })

	c, err := metadata.Bootstrap(s, 1000)
	require.NoError(t, err)
	return s, c
}

func TestRenderDescription(t *testing.T) {
	_, c := setupStore(t)

	fields, err := newPayloadRenderer(c).render(chronicle.DescriptionPayload{
		Text:             "heart",
		Language:         c.English,
		Type:             c.RegularName,
		CaseSignificance: c.CaseInsensitive,
	})
	require.NoError(t, err)
	assert.Equal(t, "DESCRIPTION", fields["kind"])
	assert.Equal(t, "heart", fields["text"])
	assert.Equal(t, "English language", fields["language"])
	assert.Equal(t, "Regular name", fields["type"])
}

func TestRenderDynamic(t *testing.T) {
	fields, err := newPayloadRenderer(nil).render(chronicle.DynamicPayload{
		Values: []chronicle.DynamicValue{
			chronicle.BooleanValue(true),
			chronicle.LongValue(42),
			chronicle.StringValue("text"),
			chronicle.NidValue(identifier.Nid(7)),
			chronicle.BytesValue([]byte{0xca, 0xfe}),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{true, int64(42), "text", "7", "cafe"}, fields["values"])

	_, err = newPayloadRenderer(nil).render(chronicle.DynamicPayload{
		Values: []chronicle.DynamicValue{{Type: 99}},
	})
	assert.ErrorIs(t, err, fault.UnknownPayloadKind)
}

func TestRenderChronicle(t *testing.T) {
	s, c := setupStore(t)

	ch, found, err := s.GetChronicle(c.PartOf)
	require.NoError(t, err)
	require.True(t, found)

	item, err := renderChronicle(s, c, ch)
	require.NoError(t, err)
	assert.Equal(t, "CONCEPT", item.Kind)
	assert.Equal(t, "Concept assemblage", item.Assemblage)
	assert.Empty(t, item.Referenced)
	require.Len(t, item.Versions, 1)
	assert.Equal(t, "metadata bootstrap", item.Versions[0].Comment)
	assert.Contains(t, item.Versions[0].Stamp, "ACTIVE")

	var buffer bytes.Buffer
	require.NoError(t, printJson(&buffer, item))
	decoded := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &decoded))
	assert.Equal(t, "CONCEPT", decoded["kind"])
}

func TestParseComponent(t *testing.T) {
	s, c := setupStore(t)

	nid, err := parseComponent(s, c, c.PartOf.String())
	require.NoError(t, err)
	assert.Equal(t, c.PartOf, nid)

	nid, err = parseComponent(s, c, metadata.UUIDFor("Part of").String())
	require.NoError(t, err)
	assert.Equal(t, c.PartOf, nid)

	nid, err = parseComponent(s, c, "Part of")
	require.NoError(t, err)
	assert.Equal(t, c.PartOf, nid)

	_, err = parseComponent(s, c, "no such concept")
	assert.ErrorIs(t, err, fault.NidNotFound)

	_, err = parseComponent(s, c, "")
	assert.Error(t, err)
}

func TestSessionNames(t *testing.T) {
	s, c := setupStore(t)
	ss := &session{store: s, concepts: c}

	calc, err := newCalculator(ss, 0)
	require.NoError(t, err)

	names, err := ss.names(context.Background(), []identifier.Nid{c.PartOf, c.Laterality}, calc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Part of", "Laterality"}, names)
}
