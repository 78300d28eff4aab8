package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forest-guardian/smap-coverage-cli/internal/properties"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscord(t *testing.T) {
	var got DiscordMessage
	status := http.StatusNoContent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(status)
	}))
	defer srv.Close()

	d := NewDiscord(properties.NotificationConfig{ErrorURL: srv.URL, SuccessURL: srv.URL})
	ctx := context.Background()

	require.NoError(t, d.SendSuccess(ctx, "search done"))
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, colorGreen, got.Embeds[0].Color)
	assert.Contains(t, got.Embeds[0].Description, "search done")

	require.NoError(t, d.SendError(ctx, "boom"))
	assert.Equal(t, colorRed, got.Embeds[0].Color)

	status = http.StatusBadRequest
	assert.Error(t, d.SendError(ctx, "boom"))
}

func TestDiscordDisabled(t *testing.T) {
	d := NewDiscord(properties.NotificationConfig{})
	assert.NoError(t, d.SendError(context.Background(), "ignored"))
	assert.NoError(t, d.SendSuccess(context.Background(), "ignored"))
}
