package notifier

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdg-garage/mess-billing/internal/attendance"
	"github.com/gdg-garage/mess-billing/internal/billing"
	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/config"
)

type fakeSender struct {
	channel  string
	messages []string
	err      error
}

func (f *fakeSender) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel = channelID
	f.messages = append(f.messages, content)
	return &discordgo.Message{Content: content}, f.err
}

func TestNotifyBillRun(t *testing.T) {
	s := &fakeSender{}
	n := NewDiscordNotifier(s, "chan-1")

	today := calendar.MustParseDay("2025-03-10")
	err := n.NotifyBillRun(billing.RunReport{
		Period:  calendar.PeriodCurrent,
		Window:  calendar.WindowFor(calendar.PeriodCurrent, today),
		Created: 2,
		Updated: 1,
		Failures: []attendance.UserFailure{
			{UserID: 3, Name: "Carol", Message: "storage unavailable"},
		},
	})
	require.NoError(t, err)
	require.Len(t, s.messages, 1)
	assert.Equal(t, "chan-1", s.channel)
	assert.Contains(t, s.messages[0], "2025-03-01..2025-03-10")
	assert.Contains(t, s.messages[0], "**Created:** 2")
	assert.Contains(t, s.messages[0], "Carol: storage unavailable")
}

func TestNotifyAutoMarkWarning(t *testing.T) {
	s := &fakeSender{}
	n := NewDiscordNotifier(s, "chan-1")

	err := n.NotifyAutoMark(attendance.MarkReport{
		Day:          calendar.MustParseDay("2025-03-09"),
		Drinks:       1,
		Users:        3,
		Marked:       3,
		UsedFallback: true,
		Warning:      attendance.FallbackWarning,
	})
	require.NoError(t, err)
	assert.Contains(t, s.messages[0], "3 of 3 members")
	assert.Contains(t, s.messages[0], attendance.FallbackWarning)
}

func TestNotifierMisconfigured(t *testing.T) {
	assert.Error(t, NewDiscordNotifier(nil, "chan").NotifyBillRun(billing.RunReport{}))
	assert.Error(t, NewDiscordNotifier(&fakeSender{}, "").NotifyBillRun(billing.RunReport{}))

	s := &fakeSender{err: errors.New("boom")}
	assert.Error(t, NewDiscordNotifier(s, "chan").NotifyAutoMark(attendance.MarkReport{}))
}

func TestNewFromConfig(t *testing.T) {
	_, err := NewFromConfig(&config.Config{})
	assert.Error(t, err)

	n, err := NewFromConfig(&config.Config{DiscordBotToken: "token", DiscordNotificationsChannelID: "chan"})
	require.NoError(t, err)
	assert.Equal(t, "chan", n.channelID)
}
