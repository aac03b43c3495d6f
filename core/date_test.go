package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	var payload struct {
		Deadline Date `json:"deadline"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"deadline":"2024-05-17"}`), &payload))
	assert.Equal(t, "2024-05-17", payload.Deadline.String())

	require.NoError(t, json.Unmarshal([]byte(`{"deadline":"2024-05-17T22:10:00Z"}`), &payload))
	assert.Equal(t, "2024-05-17", payload.Deadline.String())

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"deadline":"2024-05-17"}`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`{"deadline":"17/05/2024"}`), &payload))
}

func TestDate_Scan(t *testing.T) {
	tests := []struct {
		name    string
		src     interface{}
		want    string
		wantErr bool
	}{
		{name: "nil", src: nil, want: ""},
		{name: "time", src: time.Date(2024, 1, 2, 13, 4, 5, 0, time.UTC), want: "2024-01-02"},
		{name: "sqlite string", src: "2024-01-02 00:00:00+00:00", want: "2024-01-02"},
		{name: "date bytes", src: []byte("2024-01-02"), want: "2024-01-02"},
		{name: "garbage", src: "lol", wantErr: true},
		{name: "bad type", src: 42, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := d.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}
