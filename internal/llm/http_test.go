package llm

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendJSON_OK(t *testing.T) {
	var gotAuth, gotCT string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth, gotCT = r.Header.Get("Authorization"), r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	raw, err := SendJSON(t.Context(), srv.Client(), srv.URL, map[string]string{"a": "b"},
		map[string]string{"Authorization": "Bearer k"}, quietLogger())
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(raw))
	require.Equal(t, "Bearer k", gotAuth)
	require.Equal(t, "application/json", gotCT)
}

func TestSendJSON_Non2xxIsHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	raw, err := SendJSON(t.Context(), srv.Client(), srv.URL, struct{}{}, nil, quietLogger())
	require.Nil(t, raw)

	var ee *ExtractError
	require.True(t, errors.As(err, &ee))
	require.Equal(t, KindHTTPStatus, ee.Kind)
	require.Equal(t, http.StatusBadGateway, ee.StatusCode)
	require.Equal(t, "Erro na API da LLM - Status 502: upstream down", ee.Message)
}

func TestSendJSON_NoAnswerIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := SendJSON(t.Context(), nil, url, struct{}{}, nil, quietLogger())
	require.Equal(t, KindNetwork, KindOf(err))
	require.Contains(t, err.Error(), "Erro de rede ou requisição para a LLM:")
}

func TestSendJSON_UnencodableBodyIsNetworkError(t *testing.T) {
	_, err := SendJSON(t.Context(), nil, "http://127.0.0.1:1", map[string]any{"c": make(chan int)}, nil, quietLogger())
	require.Equal(t, KindNetwork, KindOf(err))
	require.Contains(t, err.Error(), "encode json")
}
