package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "alice@x.com", NormalizeEmail("  Alice@X.com "))
	assert.Equal(t, "tech", NormalizeCategoryName(" Tech "))
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	r, err := ParseRole("ADMIN")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("root")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewPage(t *testing.T) {
	t.Parallel()

	req, err := NewPageRequest(2, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, req.Offset())

	p := NewPage([]int{11, 12}, 25, req)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasPrevPage)
	assert.True(t, p.HasNextPage)
	require.NotNil(t, p.PrevPage)
	require.NotNil(t, p.NextPage)
	assert.Equal(t, 1, *p.PrevPage)
	assert.Equal(t, 3, *p.NextPage)

	_, err = NewPageRequest(1, 101)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewPageRequest(-1, 10)
	assert.ErrorIs(t, err, ErrInvalidInput)

	def, err := NewPageRequest(0, 0)
	require.NoError(t, err)
	assert.Equal(t, PageRequest{Page: 1, Limit: 10}, def)
}
