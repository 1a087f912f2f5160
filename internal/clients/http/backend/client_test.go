package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRestaurantPath(t *testing.T) {
	path, err := RestaurantPath("/admin/restaurants/", 42, "approve")
	require.NoError(t, err)
	require.Equal(t, "/admin/restaurants/42/approve", path)

	path, err = RestaurantPath("/restaurants", 7, "")
	require.NoError(t, err)
	require.Equal(t, "/restaurants/7", path)
}

func TestClient_ErrorsCarryBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":{"id":3}}`))
			return
		}
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"already approved"}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/", nil)
	require.NoError(t, err)

	resp, err := client.Get(context.Background(), "/ok")
	require.NoError(t, err)
	require.Equal(t, int64(3), resp.JSON().Get("data.id").Int())

	resp, err = client.Post(context.Background(), "/conflict", map[string]bool{"confirm": true})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusConflict, apiErr.StatusCode)
	require.Equal(t, "already approved", apiErr.Message)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ", nil)
	require.Error(t, err)
}
