package request_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tmaxmax/serverevents/request"
)

type record struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestGetJSON(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name     string
		status   int
		body     string
		expected error
	}{
		{name: "Valid", status: http.StatusOK, body: `{"id": 1, "name": "sarmale"}`},
		{name: "Not found", status: http.StatusNotFound, expected: request.ErrNotFoundOrNullBody},
		{name: "Null body", status: http.StatusOK, body: " null\n", expected: request.ErrNotFoundOrNullBody},
		{name: "Empty body", status: http.StatusOK, expected: request.ErrNotFoundOrNullBody},
		{name: "Invalid JSON", status: http.StatusOK, body: `{"id": `, expected: request.ErrNotJSON},
		{name: "Invalid UTF-8", status: http.StatusOK, body: "\xff\xfe", expected: request.ErrNotUTF8},
		{name: "Wrong shape", status: http.StatusOK, body: `{"id": "one"}`, expected: request.ErrSerialize},
		{name: "Server error", status: http.StatusInternalServerError, body: `{}`, expected: request.ErrNetwork},
	}

	for _, test := range tt {
		test := test

		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "application/json", r.Header.Get("Accept"))
				w.WriteHeader(test.status)
				_, _ = io.WriteString(w, test.body)
			}))
			t.Cleanup(ts.Close)

			var rec record
			err := request.GetJSON(context.Background(), ts.Client(), ts.URL, &rec)
			if test.expected == nil {
				require.NoError(t, err)
				require.Equal(t, record{ID: 1, Name: "sarmale"}, rec)
				return
			}
			require.ErrorIs(t, err, test.expected)
		})
	}
}

func TestGetJSON_network(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	err := request.GetJSON(context.Background(), nil, ts.URL, &record{})
	require.ErrorIs(t, err, request.ErrNetwork)
	require.Contains(t, err.Error(), "network error: ")
}

func TestPostJSON(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rec record
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		rec.ID++
		require.NoError(t, json.NewEncoder(w).Encode(rec))
	}))
	t.Cleanup(ts.Close)

	var out record
	require.NoError(t, request.PostJSON(context.Background(), ts.Client(), ts.URL, record{ID: 1, Name: "x"}, &out))
	require.Equal(t, record{ID: 2, Name: "x"}, out)

	err := request.PostJSON(context.Background(), ts.Client(), ts.URL, make(chan int), nil)
	require.ErrorIs(t, err, request.ErrSerialize)
}
