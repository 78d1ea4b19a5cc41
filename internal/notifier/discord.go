package notifier

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/gdg-garage/mess-billing/internal/attendance"
	"github.com/gdg-garage/mess-billing/internal/billing"
	"github.com/gdg-garage/mess-billing/internal/config"
)

type Notifier interface {
	NotifyAutoMark(report attendance.MarkReport) error
	NotifyBillRun(report billing.RunReport) error
}

// ChannelSender is the part of *discordgo.Session the notifier uses.
type ChannelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   ChannelSender
	channelID string
}

func NewDiscordNotifier(session ChannelSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

// NewFromConfig builds a notifier posting as the configured bot. Messages go
// over the REST API, so the session is never opened.
func NewFromConfig(cfg *config.Config) (*DiscordNotifier, error) {
	if cfg.DiscordBotToken == "" || cfg.DiscordNotificationsChannelID == "" {
		return nil, fmt.Errorf("discord bot token or notifications channel not configured")
	}
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID), nil
}

func (n *DiscordNotifier) NotifyAutoMark(report attendance.MarkReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "🥤 **Drinks auto-marked**\n**Day:** %s\n**Drinks:** %d\n**Marked:** %d of %d members",
		report.Day, report.Drinks, report.Marked, report.Users)
	if report.Warning != "" {
		fmt.Fprintf(&b, "\n⚠️ %s", report.Warning)
	}
	writeFailures(&b, report.Failures)
	return n.send(b.String())
}

func (n *DiscordNotifier) NotifyBillRun(report billing.RunReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 **Bills generated**\n**Period:** %s (%s)\n**Created:** %d\n**Updated:** %d\n**Skipped:** %d",
		report.Period.Describe(), report.Window, report.Created, report.Updated, report.Skipped)
	writeFailures(&b, report.Failures)
	return n.send(b.String())
}

func writeFailures(b *strings.Builder, failures []attendance.UserFailure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(b, "\n**Failures:** %d", len(failures))
	for _, f := range failures {
		fmt.Fprintf(b, "\n- %s: %s", f.Name, f.Message)
	}
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	_, err := n.session.ChannelMessageSend(n.channelID, message)
	if err != nil {
		slog.Error("Failed to send discord message", "error", err)
		return err
	}

	return nil
}
