package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservedEventFacets(t *testing.T) {
	assert.True(t, Create.IsCreation())
	assert.False(t, Create.IsRemoval())
	assert.True(t, Delete.IsRemoval())
	assert.False(t, Delete.IsCreation())
	assert.True(t, Invalid.IsInvalid())
	assert.False(t, Create.IsInvalid())
}

func TestRequireRegistrableRejectsInvalid(t *testing.T) {
	assert.Error(t, RequireRegistrable(Invalid))
	assert.NoError(t, RequireRegistrable(Create))
}

func TestUserEventRange(t *testing.T) {
	_, err := User(10, 511)
	assert.Error(t, err, "10 collides with reserved range")

	e, err := User(UserEventBase, 511)
	require.NoError(t, err)
	assert.Equal(t, UserEventBase, e.ID())

	_, err = User(512, 511)
	assert.Error(t, err)
}

func TestByIDResolvesReservedAndUser(t *testing.T) {
	e, err := ByID(idDelete, 511)
	require.NoError(t, err)
	assert.Equal(t, "DELETE", e.String())

	e, err = ByID(40, 511)
	require.NoError(t, err)
	assert.Equal(t, 40, e.ID())

	_, err = ByID(9999, 511)
	assert.Error(t, err)
}
