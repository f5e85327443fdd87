package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlapping(t *testing.T) {
	tests := []struct {
		name    string
		seatIDs []int
		taken   map[int]struct{}
		want    []int
	}{
		{
			name:    "reports only the seats another booking holds",
			seatIDs: []int{7, 3, 5},
			taken:   map[int]struct{}{5: {}, 3: {}},
			want:    []int{3, 5},
		},
		{
			name:    "ignores taken seats that were not requested",
			seatIDs: []int{1, 2},
			taken:   map[int]struct{}{2: {}, 9: {}},
			want:    []int{2},
		},
		{
			name:    "falls back to every requested seat",
			seatIDs: []int{4, 1},
			taken:   map[int]struct{}{},
			want:    []int{1, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, overlapping(tt.seatIDs, tt.taken))
		})
	}
}
