package orm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orm "github.com/encode/orm"
	"github.com/encode/orm/gateway"
)

func TestNewEntity(t *testing.T) {
	track := trackModel(t, &fakeGateway{})

	t.Run("pk aliases the primary key", func(t *testing.T) {
		entity, err := track.New(orm.Values{"pk": 7, "title": "Moon"})
		require.NoError(t, err)

		assert.Equal(t, 7, entity.PK())

		id, ok := entity.Attr("id")
		require.True(t, ok)
		assert.Equal(t, 7, id)
	})

	t.Run("unknown attribute is rejected", func(t *testing.T) {
		_, err := track.New(orm.Values{"composer": "x"})
		assert.ErrorIs(t, err, orm.ErrInvalidKeyword)
	})

	t.Run("raw foreign key expands to a placeholder", func(t *testing.T) {
		entity, err := track.New(orm.Values{"album": 3})
		require.NoError(t, err)

		album, ok := entity.Related("album")
		require.True(t, ok)
		assert.Equal(t, "Album", album.Model().Name())
		assert.Equal(t, 3, album.PK())
	})

	t.Run("related entity passes through unchanged", func(t *testing.T) {
		registry := newTestRegistry(t, &fakeGateway{}, orm.CommonDialect{})
		album, err := registry.Model("Album")
		require.NoError(t, err)
		trk, err := registry.Model("Track")
		require.NoError(t, err)

		revolver, err := album.New(orm.Values{"pk": 3, "name": "Revolver"})
		require.NoError(t, err)

		entity, err := trk.New(orm.Values{"album": revolver})
		require.NoError(t, err)

		related, ok := entity.Related("album")
		require.True(t, ok)
		assert.True(t, related.Equal(revolver))
	})
}

func TestEntityEqual(t *testing.T) {
	track := trackModel(t, &fakeGateway{})

	a, err := track.New(orm.Values{"pk": 1, "album": 3, "title": "Moon"})
	require.NoError(t, err)
	b, err := track.New(orm.Values{"pk": 1, "album": 3, "title": "Moon"})
	require.NoError(t, err)
	c, err := track.New(orm.Values{"pk": 1, "album": 4, "title": "Moon"})
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))

	// A missing attribute makes entities unequal even when the rest agree.
	d, err := track.New(orm.Values{"pk": 1, "album": 3})
	require.NoError(t, err)
	assert.False(t, a.Equal(d))
}

func TestEntityUpdate(t *testing.T) {
	gw := &fakeGateway{}
	track := trackModel(t, gw)

	entity, err := track.New(orm.Values{"pk": 7, "title": "Moon"})
	require.NoError(t, err)

	require.NoError(t, entity.Update(context.Background(), orm.Values{"title": "Sun"}))

	assert.Equal(t, "UPDATE `tracks` SET `title`=? WHERE `tracks`.`id` = ?", gw.lastQuery())
	assert.Equal(t, []interface{}{"Sun", 7}, gw.lastVars())

	// The in-memory entity mirrors the written values.
	title, _ := entity.Attr("title")
	assert.Equal(t, "Sun", title)
}

func TestEntityDelete(t *testing.T) {
	gw := &fakeGateway{}
	track := trackModel(t, gw)

	entity, err := track.New(orm.Values{"pk": 7})
	require.NoError(t, err)

	require.NoError(t, entity.Delete(context.Background()))

	assert.Equal(t, "DELETE FROM `tracks` WHERE `tracks`.`id` = ?", gw.lastQuery())
	assert.Equal(t, []interface{}{7}, gw.lastVars())
}

func TestEntityLoad(t *testing.T) {
	t.Run("refreshes every attribute", func(t *testing.T) {
		gw := &fakeGateway{rows: [][]gateway.Row{{
			gateway.MapRow{"id": int64(7), "album": int64(3), "title": "Fresh", "position": int64(1)},
		}}}
		track := trackModel(t, gw)

		entity, err := track.New(orm.Values{"pk": 7, "title": "Stale"})
		require.NoError(t, err)

		require.NoError(t, entity.Load(context.Background()))

		assert.Equal(t, selectTracks+" WHERE `tracks`.`id` = ?", gw.lastQuery())

		title, _ := entity.Attr("title")
		assert.Equal(t, "Fresh", title)

		album, ok := entity.Related("album")
		require.True(t, ok)
		assert.Equal(t, int64(3), album.PK())
	})

	t.Run("vanished row reports not found", func(t *testing.T) {
		gw := &fakeGateway{}
		track := trackModel(t, gw)

		entity, err := track.New(orm.Values{"pk": 7})
		require.NoError(t, err)

		assert.ErrorIs(t, entity.Load(context.Background()), orm.ErrNotFound)
	})
}
