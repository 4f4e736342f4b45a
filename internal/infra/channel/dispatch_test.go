package channel_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"fanout/internal/domain/notification"
	"fanout/internal/infra/channel"
	"fanout/internal/infra/directory"
	"fanout/internal/infra/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher(t *testing.T, dir notification.Directory, strategies ...notification.Strategy) (*notification.Dispatcher, *store.MemoryStore) {
	t.Helper()
	reg, err := notification.NewRegistry(strategies...)
	require.NoError(t, err)
	st := store.NewMemoryStore()
	return notification.NewDispatcher(dir, reg, st), st
}

var prefixes = map[notification.Channel]string{
	notification.ChannelEmail: "EMAIL-",
	notification.ChannelSMS:   "SMS-",
	notification.ChannelPush:  "PUSH-",
}

func TestDispatch_DemoDirectory(t *testing.T) {
	d, st := newDispatcher(t, directory.NewMemory(directory.Fixture()...), channel.All(nil, nil)...)
	ctx := context.Background()

	cases := []struct {
		category notification.Category
		content  string
		want     int
		users    []string
	}{
		{notification.CategorySports, "Breaking: Home team wins the final!", 10, []string{"user-1", "user-2", "user-4", "user-5", "user-7"}},
		{notification.CategoryFinance, "Rates change effective tomorrow at 09:00.", 10, []string{"user-1", "user-3", "user-4", "user-7", "user-8"}},
		{notification.CategoryMovies, "   New   release\tthis\nFriday!   ", 8, []string{"user-2", "user-4", "user-6", "user-8"}},
	}

	total := 0
	for _, tc := range cases {
		t.Run(string(tc.category), func(t *testing.T) {
			views, err := d.Dispatch(ctx, tc.category, tc.content)
			require.NoError(t, err)
			require.Len(t, views, tc.want)
			total += len(views)

			var users []string
			for _, v := range views {
				if len(users) == 0 || users[len(users)-1] != v.UserID {
					users = append(users, v.UserID)
				}
				assert.Equal(t, notification.StatusSent, v.Status, v.ErrorMessage)
				assert.True(t, strings.HasPrefix(v.ExternalMessageID, prefixes[v.Channel]), v.ExternalMessageID)
				assert.Equal(t, notification.Sanitize(tc.content), v.MessageContent)
			}
			assert.Equal(t, tc.users, users)
		})
	}

	history, err := st.FindAllOrderedBySentDesc(ctx)
	require.NoError(t, err)
	assert.Len(t, history, total)
}

func TestDispatch_InvalidEmailAddress(t *testing.T) {
	dir := directory.NewMemory(notification.Recipient{
		ID:         "user-9",
		Name:       "Broken",
		Email:      "not-an-address",
		Categories: []notification.Category{notification.CategorySports},
		Channels:   []notification.Channel{notification.ChannelEmail},
	})
	d, _ := newDispatcher(t, dir, channel.All(nil, nil)...)

	views, err := d.Dispatch(context.Background(), notification.CategorySports, "Breaking: Home team wins the final!")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, notification.StatusFailed, views[0].Status)
	assert.Equal(t, "Invalid email address format", views[0].ErrorMessage)
}

func TestDispatch_NoSMSStrategy(t *testing.T) {
	dir := directory.NewMemory(directory.Fixture()...)
	d, _ := newDispatcher(t, dir, channel.NewEmail(nil, nil), channel.NewPush(nil, nil))

	views, err := d.Dispatch(context.Background(), notification.CategoryFinance, "Rates change effective tomorrow at 09:00.")
	require.NoError(t, err)

	for _, v := range views {
		if v.Channel == notification.ChannelSMS {
			assert.Equal(t, notification.StatusFailed, v.Status)
			assert.Equal(t, "No strategy found for channel: SMS", v.ErrorMessage)
		} else {
			assert.Equal(t, notification.StatusSent, v.Status)
		}
	}
}

func TestDispatch_LongSMSIsTruncated(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
	)
	capture := channel.TransportFunc(func(_ context.Context, env channel.Envelope) error {
		mu.Lock()
		defer mu.Unlock()
		bodies = append(bodies, env.Body)
		return nil
	})

	r := notification.Recipient{
		ID:         "user-3",
		Name:       "Bob",
		Phone:      "+1-555-0103",
		Categories: []notification.Category{notification.CategoryFinance},
		Channels:   []notification.Channel{notification.ChannelSMS},
	}
	d, _ := newDispatcher(t, directory.NewMemory(r), channel.NewSMS(capture, nil))

	prefix := "Hi Bob! [Finance] "
	content := strings.Repeat("m", 180-len(prefix))
	views, err := d.Dispatch(context.Background(), notification.CategoryFinance, content)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, notification.StatusSent, views[0].Status)

	require.Len(t, bodies, 1)
	assert.Equal(t, channel.SMSMaxLength, utf8.RuneCountInString(bodies[0]))
	assert.True(t, strings.HasSuffix(bodies[0], "..."))
	// The stored content keeps the full message.
	assert.Equal(t, content, views[0].MessageContent)
}
