package ssetest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tmaxmax/serverevents/internal/parser"
	"github.com/tmaxmax/serverevents/internal/ssetest"
)

func TestMessage_String(t *testing.T) {
	t.Parallel()

	m := new(ssetest.Message).
		SetID("1").
		SetName("update\nignored").
		SetRetry(1500 * time.Millisecond).
		Comment("hello").
		AppendData("first\r\nsecond", "third")

	require.Equal(t, "id: 1\nevent: update\nretry: 1500\n: hello\ndata: first\ndata: second\ndata: third\n\n", m.String())

	p := parser.NewFieldParser(m.String())
	var names []parser.FieldName
	for f := (parser.Field{}); p.Next(&f); {
		names = append(names, f.Name)
	}
	require.NoError(t, p.Err())
	require.Equal(t, []parser.FieldName{
		parser.FieldNameID,
		parser.FieldNameEvent,
		parser.FieldNameRetry,
		parser.FieldNameComment,
		parser.FieldNameData,
		parser.FieldNameData,
		parser.FieldNameData,
		"",
	}, names)
}

func TestMessage_empty(t *testing.T) {
	t.Parallel()

	require.Equal(t, "\n", new(ssetest.Message).String())
	require.Equal(t, "id: \n\n", new(ssetest.Message).SetID("").String())
}
