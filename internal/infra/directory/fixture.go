package directory

import "fanout/internal/domain/notification"

// Fixture returns the built-in demo recipients.
func Fixture() []notification.Recipient {
	const (
		sports  = notification.CategorySports
		finance = notification.CategoryFinance
		movies  = notification.CategoryMovies

		sms   = notification.ChannelSMS
		email = notification.ChannelEmail
		push  = notification.ChannelPush
	)

	cats := func(c ...notification.Category) []notification.Category { return c }
	chans := func(c ...notification.Channel) []notification.Channel { return c }

	return []notification.Recipient{
		{ID: "user-1", Name: "John Smith", Email: "john.smith@email.com", Phone: "+1-555-0101",
			Categories: cats(sports, finance), Channels: chans(email, sms)},
		{ID: "user-2", Name: "Alice Johnson", Email: "alice.johnson@email.com", Phone: "+1-555-0102",
			Categories: cats(movies, sports), Channels: chans(email, push)},
		{ID: "user-3", Name: "Bob Wilson", Email: "bob.wilson@email.com", Phone: "+1-555-0103",
			Categories: cats(finance), Channels: chans(sms)},
		{ID: "user-4", Name: "Carol Davis", Email: "carol.davis@email.com", Phone: "+1-555-0104",
			Categories: cats(movies, finance, sports), Channels: chans(email, sms, push)},
		{ID: "user-5", Name: "David Brown", Email: "david.brown@email.com", Phone: "+1-555-0105",
			Categories: cats(sports), Channels: chans(push)},
		{ID: "user-6", Name: "Emma Taylor", Email: "emma.taylor@email.com", Phone: "+1-555-0106",
			Categories: cats(movies), Channels: chans(email)},
		{ID: "user-7", Name: "Frank Miller", Email: "frank.miller@email.com", Phone: "+1-555-0107",
			Categories: cats(finance, sports), Channels: chans(sms, push)},
		{ID: "user-8", Name: "Grace Lee", Email: "grace.lee@email.com", Phone: "+1-555-0108",
			Categories: cats(movies, finance), Channels: chans(email, push)},
	}
}
