package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()

	assert.NotEqual(t, a, b)
	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestPushNotifications(t *testing.T) {
	n := func(id string) Notification { return Notification{ID: id} }

	list := pushNotifications(nil, 3, n("1"), n("2"))
	assert.Equal(t, []Notification{n("2"), n("1")}, list)

	list = pushNotifications(list, 3, n("3"), n("4"))
	assert.Equal(t, []Notification{n("4"), n("3"), n("2")}, list)
}
