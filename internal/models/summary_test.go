package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		amounts []int64
		want    Summary
	}{
		{"empty", nil, Summary{}},
		{"single", []int64{450}, Summary{Total: 450, Average: 450, Median: 450}},
		{"odd count", []int64{1000, 2000, 3000}, Summary{Total: 6000, Average: 2000, Median: 2000}},
		{"even count", []int64{1000, 2000}, Summary{Total: 3000, Average: 1500, Median: 1500}},
		{"unsorted", []int64{300, 100, 200, 1000}, Summary{Total: 1600, Average: 400, Median: 250}},
		{"half cent median", []int64{1, 2}, Summary{Total: 3, Average: 1.5, Median: 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.amounts))
		})
	}
}

func TestSummarizeDoesNotReorderInput(t *testing.T) {
	amounts := []int64{3, 1, 2}
	Summarize(amounts)
	assert.Equal(t, []int64{3, 1, 2}, amounts)
}
