package apify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient(t *testing.T) {
	var lastPath string
	var lastInput RunInput

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastPath = r.URL.EscapedPath()
		require.Equal(t, "secret-token", r.URL.Query().Get("token"))

		switch {
		case r.Method == http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&lastInput))
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(runEnvelope{Data: Run{
				Id: "run-1", Status: RunStatusRunning, DefaultDatasetId: "ds-1",
			}})
		case r.URL.Path == "/v2/actor-runs/run-1":
			json.NewEncoder(w).Encode(runEnvelope{Data: Run{
				Id: "run-1", Status: RunStatusSucceeded, DefaultDatasetId: "ds-1",
			}})
		case r.URL.Path == "/v2/datasets/ds-1/items":
			json.NewEncoder(w).Encode([]InstagramPost{
				{Id: "p1", Url: "https://instagram.com/p/p1"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient("secret-token", "apify/instagram-scraper", srv.URL)
	ctx := context.Background()

	run, err := client.StartRun(ctx, &RunInput{
		Username:     []string{"nike"},
		ResultsLimit: 20,
		ResultsType:  "posts",
	})
	require.NoError(t, err)
	require.Equal(t, "run-1", run.Id)
	require.Equal(t, RunStatusRunning, run.Status)
	// The actor id travels path-escaped inside the url.
	require.Equal(t, "/v2/acts/apify%2Finstagram-scraper/runs", lastPath)
	require.Equal(t, []string{"nike"}, lastInput.Username)

	run, err = client.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, RunStatusSucceeded, run.Status)

	items, err := client.DatasetItems(ctx, "ds-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "p1", items[0].Id)
}

func TestClientErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid token"}`))
	}))
	defer srv.Close()

	client := NewClient("bad-token", "apify/instagram-scraper", srv.URL)
	_, err := client.GetRun(context.Background(), "run-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
}

func TestNewClientFromEnv(t *testing.T) {
	t.Setenv("APIFY_TOKEN", "")
	_, err := NewClientFromEnv()
	require.Error(t, err)

	t.Setenv("APIFY_TOKEN", "tok")
	t.Setenv("APIFY_ACTOR_ID", "")
	client, err := NewClientFromEnv()
	require.NoError(t, err)
	require.Equal(t, DefaultActorId, client.actorId)
}
