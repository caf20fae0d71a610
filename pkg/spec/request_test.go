package spec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestRejectsNonStringFields(t *testing.T) {
	var request Request
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"worker","name":"consumer","image":"consumer:v1","replicas":2}`), &request))
	require.Equal(
		t,
		Request{Kind: "worker", Name: "consumer", Image: "consumer:v1", Options: map[string]any{"replicas": float64(2)}},
		request,
	)

	err := json.Unmarshal([]byte(`{"type":"service","name":7}`), &request)
	require.ErrorIs(t, err, ErrValidation)
}

func TestRequests(t *testing.T) {
	var requests Requests
	require.NoError(t, json.Unmarshal([]byte(` {"type":"job","name":"backup","image":"backup:v1"}`), &requests))
	require.Len(t, requests, 1)
	require.Equal(t, "backup", requests[0].Name)

	require.NoError(t, json.Unmarshal([]byte(`[{"type":"job","name":"a"},{"type":"service","name":"b"}]`), &requests))
	require.Len(t, requests, 2)
	require.Equal(t, "service", requests[1].Kind)

	require.Error(t, json.Unmarshal([]byte(`"service"`), &requests))
}
