package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckBody(t *testing.T) {
	srv := testServer(t)
	body := "See [working](" + srv.URL + "/ok) and [dead](" + srv.URL + "/gone).\n\n" +
		"![diagram](/assets/diagram.png)\n"

	c := NewChecker(srv.Client(), time.Second)
	results := c.CheckBody(context.Background(), body)
	require.Len(t, results, 3)

	byURL := map[string]Result{}
	for _, r := range results {
		byURL[r.URL] = r
	}

	ok := byURL[srv.URL+"/ok"]
	require.Equal(t, ResultOK, ok.Result)
	require.Equal(t, http.StatusOK, ok.Status)

	gone := byURL[srv.URL+"/gone"]
	require.Equal(t, ResultBroken, gone.Result)
	require.Equal(t, http.StatusNotFound, gone.Status)

	img := byURL["/assets/diagram.png"]
	require.Equal(t, ResultSkipped, img.Result)
	require.True(t, img.Image)

	require.Len(t, Broken(results), 1)
}

func TestCheckBody_UnreachableHostIsBroken(t *testing.T) {
	srv := testServer(t)
	addr := srv.URL
	srv.Close()

	c := NewChecker(nil, 500*time.Millisecond)
	results := c.CheckBody(context.Background(), "[down]("+addr+"/ok)\n")
	require.Len(t, results, 1)
	require.Equal(t, ResultBroken, results[0].Result)
	require.NotEmpty(t, results[0].Detail)
}

func TestCheckBody_CanceledContextStopsEarly(t *testing.T) {
	srv := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body := "[a](" + srv.URL + "/ok)\n[b](" + srv.URL + "/ok)\n[c](" + srv.URL + "/ok)\n"
	results := NewChecker(srv.Client(), time.Second).CheckBody(ctx, body)
	require.Len(t, results, 1, "a canceled context stops after the in-flight probe")
}

func TestCheckBody_NoLinks(t *testing.T) {
	results := NewChecker(nil, time.Second).CheckBody(context.Background(), "plain prose only\n")
	require.Empty(t, results)
}
