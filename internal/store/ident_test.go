package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextID(t *testing.T) {
	tests := []struct {
		name    string
		records []record
		want    int
	}{
		{name: "empty collection", records: nil, want: 1},
		{name: "single record", records: []record{{ID: 1}}, want: 2},
		{name: "unordered ids", records: []record{{ID: 7}, {ID: 2}, {ID: 5}}, want: 8},
		{name: "gaps after deletes", records: []record{{ID: 1}, {ID: 40}}, want: 41},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextID(tt.records, recordID)
			assert.Equal(t, tt.want, got)
			for _, r := range tt.records {
				assert.Greater(t, got, r.ID)
			}
		})
	}
}
