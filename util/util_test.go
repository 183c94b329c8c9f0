package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChoose(t *testing.T) {
	assert.Equal(t, "a", Choose(true, "a", "b"))
	assert.Equal(t, 2, Choose(false, 1, 2))
}

func TestNormalizeString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "Pet", want: "Pet"},
		{input: "pet-store", want: "pet_store"},
		{input: "pet--store", want: "pet_store"},
		{input: " get pets by id ", want: "get_pets_by_id"},
		{input: "1password", want: "_1password"},
		{input: "a.b/c", want: "a_b_c"},
		{input: "café", want: "cafe_"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeString(tt.input))
		})
	}
}
