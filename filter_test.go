package serverevents_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tmaxmax/serverevents"
	"github.com/tmaxmax/serverevents/transport"
)

type result struct {
	ev  serverevents.Event
	err error
}

func normalizeAll(frames []transport.Frame, keepAliveFriendly bool) []result {
	var out []result
	for _, f := range frames {
		if ev, err, ok := serverevents.Normalize(f, nil, keepAliveFriendly); ok {
			out = append(out, result{ev, err})
		}
	}
	return out
}

func TestNormalize_scenarios(t *testing.T) {
	t.Parallel()

	frames := []transport.Frame{
		transport.Event{Type: "message", Data: "hello"},
		transport.Comment{Text: "ping"},
		transport.Event{Type: "keep-alive", Data: ""},
		transport.Event{Type: "update", Data: "null"},
	}

	require.Equal(t, []result{
		{ev: serverevents.Event{Type: "message", Data: "hello", HasData: true}},
		{ev: serverevents.Event{Type: "update"}},
	}, normalizeAll(frames, false))

	require.Equal(t, []result{
		{ev: serverevents.Event{Type: "message", Data: "hello", HasData: true}},
		{ev: serverevents.Event{Type: "keep-alive", Data: "", HasData: true}},
		{ev: serverevents.Event{Type: "update"}},
	}, normalizeAll(frames, true))
}

func TestNormalize_error(t *testing.T) {
	t.Parallel()

	cause := &transport.Error{Reason: "unable to execute request", Err: errors.New("connection refused")}

	ev, err, ok := serverevents.Normalize(nil, cause, false)
	require.True(t, ok, "errors must not be dropped")
	require.Equal(t, serverevents.Event{}, ev)

	var serr *serverevents.StreamError
	require.ErrorAs(t, err, &serr)
	require.False(t, serr.Temporary())
	require.Contains(t, serr.Error(), "connection refused")
	require.NotErrorIs(t, err, cause, "the transport error must not be exposed")

	_, err, _ = serverevents.Normalize(nil, &transport.Error{Err: &transport.TemporaryError{Err: errors.New("busy")}}, true)
	require.ErrorAs(t, err, &serr)
	require.True(t, serr.Temporary())
}

func TestNormalize_null(t *testing.T) {
	t.Parallel()

	for _, data := range []string{"NULL", "null ", " null", `"null"`, "nil", ""} {
		ev, _, ok := serverevents.Normalize(transport.Event{Type: "t", Data: data}, nil, false)
		require.True(t, ok)
		value, hasData := ev.Value()
		require.True(t, hasData, "only the exact text null is the sentinel, got %q", data)
		require.Equal(t, data, value)
	}

	ev, _, _ := serverevents.Normalize(transport.Event{Type: "t", Data: "null"}, nil, false)
	require.Equal(t, "null", ev.String())
}

func genFrame() *rapid.Generator[transport.Frame] {
	return rapid.OneOf(
		rapid.Custom(func(t *rapid.T) transport.Frame {
			return transport.Event{
				Type: rapid.OneOf(rapid.SampledFrom([]string{"message", "keep-alive", "update"}), rapid.String()).Draw(t, "type"),
				Data: rapid.OneOf(rapid.Just("null"), rapid.String()).Draw(t, "data"),
			}
		}),
		rapid.Custom(func(t *rapid.T) transport.Frame {
			return transport.Comment{Text: rapid.String().Draw(t, "comment")}
		}),
		rapid.Custom(func(t *rapid.T) transport.Frame {
			return transport.Connected{Status: rapid.IntRange(100, 599).Draw(t, "status")}
		}),
	)
}

func TestNormalize_properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		frame := genFrame().Draw(t, "frame")
		keepAliveFriendly := rapid.Bool().Draw(t, "keepAliveFriendly")

		ev1, err1, ok1 := serverevents.Normalize(frame, nil, keepAliveFriendly)
		ev2, err2, ok2 := serverevents.Normalize(frame, nil, keepAliveFriendly)
		if ev1 != ev2 || err1 != err2 || ok1 != ok2 {
			t.Fatalf("Normalize is not deterministic for %#v", frame)
		}
		if err1 != nil {
			t.Fatalf("unexpected error %v", err1)
		}

		e, isEvent := frame.(transport.Event)
		switch {
		case !isEvent:
			if ok1 {
				t.Fatalf("non-data frame %#v was not dropped", frame)
			}
		case e.Type == "keep-alive":
			if ok1 != keepAliveFriendly {
				t.Fatalf("keep-alive kept=%t with keepAliveFriendly=%t", ok1, keepAliveFriendly)
			}
		default:
			if !ok1 {
				t.Fatalf("event %#v was dropped", frame)
			}
		}

		if !ok1 {
			return
		}
		if ev1.Type != e.Type {
			t.Fatalf("type changed: %q -> %q", e.Type, ev1.Type)
		}
		if data, hasData := ev1.Value(); hasData == (e.Data == "null") || (hasData && data != e.Data) {
			t.Fatalf("data %q normalized to (%q, %t)", e.Data, data, hasData)
		}
	})
}

func TestNormalize_order(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		frames := rapid.SliceOf(genFrame()).Draw(t, "frames")
		keepAliveFriendly := rapid.Bool().Draw(t, "keepAliveFriendly")

		var expected []result
		for _, f := range frames {
			e, ok := f.(transport.Event)
			if !ok || (e.Type == "keep-alive" && !keepAliveFriendly) {
				continue
			}
			ev := serverevents.Event{Type: e.Type, Data: e.Data, HasData: true}
			if e.Data == "null" {
				ev = serverevents.Event{Type: e.Type}
			}
			expected = append(expected, result{ev: ev})
		}

		got := normalizeAll(frames, keepAliveFriendly)
		if len(got) != len(expected) {
			t.Fatalf("expected %d events, got %d", len(expected), len(got))
		}
		for i := range got {
			if got[i] != expected[i] {
				t.Fatalf("event %d: expected %+v, got %+v", i, expected[i], got[i])
			}
		}
	})
}
