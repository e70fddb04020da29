package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextColorOrDefault(t *testing.T) {
	white := "#ffffff"
	empty := ""

	assert.Equal(t, DefaultCategoryTextColor, Category{}.TextColorOrDefault())
	assert.Equal(t, DefaultCategoryTextColor, Category{TextColor: &empty}.TextColorOrDefault())
	assert.Equal(t, white, Category{TextColor: &white}.TextColorOrDefault())
}
