package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncBatchResponse_UnmarshalTimestamps(t *testing.T) {
	want := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		body string
	}{
		{
			name: "rfc3339",
			body: `{"newSyncTimestamp":"2026-05-04T12:00:00Z",
				"serverChanges":[{"type":"update","entity":"sites","data":{"id":"s1"},"timestamp":"2026-05-04T14:00:00+02:00"}]}`,
		},
		{
			name: "unix milliseconds",
			body: `{"newSyncTimestamp":1777896000000,
				"serverChanges":[{"type":"update","entity":"sites","data":{"id":"s1"},"timestamp":1777896000000}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp SyncBatchResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &resp))

			require.NotNil(t, resp.NewSyncTimestamp)
			assert.True(t, want.Equal(*resp.NewSyncTimestamp))

			require.Len(t, resp.ServerChanges, 1)
			c := resp.ServerChanges[0]
			assert.Equal(t, OperationUpdate, c.Type)
			assert.Equal(t, EntitySites, c.Entity)
			assert.Equal(t, "s1", c.RecordID())
			require.NotNil(t, c.Timestamp)
			assert.True(t, want.Equal(*c.Timestamp))
		})
	}
}

func TestSyncBatchResponse_UnmarshalAbsentAndNull(t *testing.T) {
	var resp SyncBatchResponse
	require.NoError(t, json.Unmarshal([]byte(`{"newSyncTimestamp":null,"serverChanges":[{"type":"delete","entity":"sites","data":{"id":"s1"}}]}`), &resp))

	assert.Nil(t, resp.NewSyncTimestamp)
	assert.Nil(t, resp.Results)
	require.Len(t, resp.ServerChanges, 1)
	assert.Nil(t, resp.ServerChanges[0].Timestamp)

	var acked SyncBatchResponse
	require.NoError(t, json.Unmarshal([]byte(`{"results":[]}`), &acked))
	assert.NotNil(t, acked.Results)
	assert.Empty(t, acked.Results)
}

func TestSyncBatchResponse_UnmarshalInvalidTimestamp(t *testing.T) {
	var resp SyncBatchResponse
	err := json.Unmarshal([]byte(`{"newSyncTimestamp":"yesterday"}`), &resp)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)

	var change ServerChange
	err = json.Unmarshal([]byte(`{"type":"update","entity":"sites","data":{"id":"s1"},"timestamp":true}`), &change)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}
