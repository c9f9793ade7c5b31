package bridge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandleModelsIncludesCreatedField(t *testing.T) {
	b := &Bridge{}
	handler := b.handleModels("gpt-4o-mini")

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Object string `json:"object"`
		Data   []struct {
			ID      string `json:"id"`
			Object  string `json:"object"`
			Created int64  `json:"created"`
			OwnedBy string `json:"owned_by"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "list", body.Object)
	require.Len(t, body.Data, 1)
	require.Equal(t, "gpt-4o-mini", body.Data[0].ID)
	require.Equal(t, "model", body.Data[0].Object)
	require.Equal(t, "mcpexec", body.Data[0].OwnedBy)
	require.Greater(t, body.Data[0].Created, int64(0))
}
