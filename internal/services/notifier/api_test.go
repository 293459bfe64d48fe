package notifier

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovive/greenhouse-live/internal/model"
)

func apiStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(10)
	s.Insert(model.Notification{ID: "a", Kind: model.KindVisit, Title: "Visita", CreatedAt: time.Now()})
	s.Insert(model.Notification{ID: "b", Kind: model.KindSensorAlert, Title: "Alerta", CreatedAt: time.Now().Add(time.Second)})
	return s
}

func TestAPIListNotifications(t *testing.T) {
	srv := httptest.NewServer(NewHTTPMux(apiStore(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/notifications")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []model.Notification
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID, "newest first")
}

func putReq(t *testing.T, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestAPIMarkOneRead(t *testing.T) {
	store := apiStore(t)
	srv := httptest.NewServer(NewHTTPMux(store))
	defer srv.Close()

	resp := putReq(t, srv.URL+"/notifications/a/read")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, store.Unread())

	// idempotent
	resp2 := putReq(t, srv.URL+"/notifications/a/read")
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, 1, store.Unread())
}

func TestAPIMarkUnknownIDNotFound(t *testing.T) {
	srv := httptest.NewServer(NewHTTPMux(apiStore(t)))
	defer srv.Close()

	resp := putReq(t, srv.URL+"/notifications/nope/read")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIMarkAllRead(t *testing.T) {
	store := apiStore(t)
	srv := httptest.NewServer(NewHTTPMux(store))
	defer srv.Close()

	resp := putReq(t, srv.URL+"/notifications/read-all")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, store.Unread())
}

func TestAPIMethodNotAllowed(t *testing.T) {
	srv := httptest.NewServer(NewHTTPMux(apiStore(t)))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/notifications", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
