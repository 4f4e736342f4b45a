package directory

import (
	"context"
	"testing"

	"fanout/internal/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(rs []notification.Recipient) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestMemory_Fixture(t *testing.T) {
	m := NewMemory(Fixture()...)
	ctx := context.Background()

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	cases := map[notification.Category][]string{
		notification.CategorySports:  {"user-1", "user-2", "user-4", "user-5", "user-7"},
		notification.CategoryFinance: {"user-1", "user-3", "user-4", "user-7", "user-8"},
		notification.CategoryMovies:  {"user-2", "user-4", "user-6", "user-8"},
	}
	for cat, want := range cases {
		rs, err := m.FindBySubscribedCategory(ctx, cat)
		require.NoError(t, err)
		assert.Equal(t, want, ids(rs), cat)
	}
}

func TestMemory_SnapshotsAreCopies(t *testing.T) {
	m := NewMemory(Fixture()...)
	ctx := context.Background()

	rs, err := m.FindBySubscribedCategory(ctx, notification.CategorySports)
	require.NoError(t, err)
	rs[0].Channels[0] = notification.ChannelPush
	rs[0].Name = "Mutated"

	r, err := m.FindByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "John Smith", r.Name)
	assert.Equal(t, notification.ChannelEmail, r.Channels[0])
}

func TestMemory_CRUD(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	r, err := m.FindByID(ctx, "x")
	require.NoError(t, err)
	assert.Nil(t, r)

	require.NoError(t, m.Save(ctx, notification.Recipient{ID: "a", Name: "A"}))
	require.NoError(t, m.Save(ctx, notification.Recipient{ID: "b", Name: "B"}))
	require.NoError(t, m.Save(ctx, notification.Recipient{ID: "a", Name: "A2"}))
	assert.Error(t, m.Save(ctx, notification.Recipient{ID: "  "}))

	all, err := m.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(all))
	assert.Equal(t, "A2", all[0].Name)

	require.NoError(t, m.DeleteByID(ctx, "a"))
	require.NoError(t, m.DeleteByID(ctx, "missing"))

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemory_Replace(t *testing.T) {
	m := NewMemory(Fixture()...)
	m.Replace([]notification.Recipient{{ID: "solo", Categories: []notification.Category{notification.CategoryMovies}}})

	all, err := m.FindAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, ids(all))
}
