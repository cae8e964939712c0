package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		wantPage   int
		wantOffset int
	}{
		{name: "zero is first page", page: 0, wantPage: 1, wantOffset: 0},
		{name: "negative is first page", page: -3, wantPage: 1, wantOffset: 0},
		{name: "regular page", page: 3, wantPage: 3, wantOffset: 20},
		{name: "last allowed page", page: MaxPage, wantPage: MaxPage, wantOffset: (MaxPage - 1) * PageSize},
		{name: "huge page is capped", page: 922337203685477582, wantPage: MaxPage, wantOffset: (MaxPage - 1) * PageSize},
		{name: "max int is capped", page: math.MaxInt, wantPage: MaxPage, wantOffset: (MaxPage - 1) * PageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, offset := NormalizePage(tt.page)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantOffset, offset)
			assert.GreaterOrEqual(t, offset, 0)
		})
	}
}
