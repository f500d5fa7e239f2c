package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDeliverPostsPayload(t *testing.T) {
	var gotEvent string
	var gotBody Delivery
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEvent = r.Header.Get("X-Notify-Event")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL)
	err := d.Deliver(context.Background(), Delivery{
		Event:       "reply",
		ThreadID:    uuid.NewString(),
		ThreadTitle: "Flow temp drops",
		Recipients:  []Recipient{{UserID: uuid.New(), Email: "owner@example.test"}},
	})
	require.NoError(t, err)
	require.Equal(t, "reply", gotEvent)
	require.Equal(t, "Flow temp drops", gotBody.ThreadTitle)
	require.Len(t, gotBody.Recipients, 1)
}

func TestDeliverSkipsWithoutURLOrRecipients(t *testing.T) {
	d := NewDispatcher("")
	require.NoError(t, d.Deliver(context.Background(), Delivery{Event: "reply", Recipients: []Recipient{{}}}))

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()
	d2 := NewDispatcher(srv.URL)
	require.NoError(t, d2.Deliver(context.Background(), Delivery{Event: "reply"}))
	require.Zero(t, hits)
}

func TestDeliverSurfacesEndpointErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL)
	err := d.Deliver(context.Background(), Delivery{
		Event:      "resolve",
		Recipients: []Recipient{{UserID: uuid.New()}},
	})
	require.Error(t, err)
}
