package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest(t *testing.T) {
	assert.Equal(t, DefaultPageSize, PageRequest{}.Limit())
	assert.Equal(t, MaxPageSize, PageRequest{Size: 10_000}.Limit())
	assert.Equal(t, 7, PageRequest{Size: 7}.Limit())

	assert.Equal(t, 0, PageRequest{PageToken: "!!"}.Offset())
	tok := NextPageToken(0, 10, 25)
	assert.Equal(t, 10, PageRequest{PageToken: tok}.Offset())
	assert.Empty(t, NextPageToken(20, 10, 25))
}
