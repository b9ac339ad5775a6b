package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/foxseedlab/plantbuddy/internal/notify"
)

const (
	colorListed = 0x2ecc71
	colorMinted = 0xf1c40f
)

// Announcer posts listings to a text channel over the REST API. It never
// opens a gateway connection.
type Announcer struct {
	session   *discordgo.Session
	channelID string

	nameOnce    sync.Once
	channelName string
}

func NewAnnouncer(token, channelID string) (*Announcer, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	return &Announcer{session: s, channelID: channelID}, nil
}

func (a *Announcer) Name() string {
	return "discord"
}

func (a *Announcer) NotifyListing(ctx context.Context, notice notify.ListingNotice) error {
	if a.channelID == "" {
		return nil
	}
	msg := &discordgo.MessageSend{
		Content: fmt.Sprintf("New PlantBuddy dataset in %s", a.resolveChannelName()),
		Embeds:  []*discordgo.MessageEmbed{listingEmbed(notice)},
	}
	if len(notice.Transcript) > 0 && notice.TranscriptFilename != "" {
		msg.Files = []*discordgo.File{
			{Name: notice.TranscriptFilename, ContentType: "text/plain", Reader: bytes.NewReader(notice.Transcript)},
		}
	}
	if _, err := a.session.ChannelMessageSendComplex(a.channelID, msg, discordgo.WithContext(ctx)); err != nil {
		if isRESTNotFound(err) {
			return fmt.Errorf("discord channel %s not found: %w", a.channelID, err)
		}
		return err
	}
	return nil
}

func listingEmbed(n notify.ListingNotice) *discordgo.MessageEmbed {
	color := colorMinted
	if n.TxDigest != "" {
		color = colorListed
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Status", Value: n.Status, Inline: true},
		{Name: "Network", Value: n.Network, Inline: true},
		{Name: "Price", Value: strconv.Itoa(n.PriceSuggestion), Inline: true},
		{Name: "Size", Value: n.SizeLabel, Inline: true},
		{Name: "Interactions", Value: strconv.Itoa(n.EventCount), Inline: true},
		{Name: "Sentiment", Value: strconv.Itoa(n.SentimentScore), Inline: true},
		{Name: "Creator", Value: n.CreatorShort, Inline: true},
		{Name: "Blob", Value: n.WalrusBlobID},
	}
	if n.TxDigest != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Transaction", Value: n.TxDigest})
	}
	if n.SealScheme != "" && n.SealScheme != "none" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Payload", Value: "sealed (" + n.SealScheme + ")"})
	}
	return &discordgo.MessageEmbed{
		Title:       n.Title,
		Description: n.Description,
		URL:         n.RetrievalURL,
		Color:       color,
		Fields:      fields,
		Timestamp:   n.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// resolveChannelName prefers the state cache and falls back to REST once.
func (a *Announcer) resolveChannelName() string {
	a.nameOnce.Do(func() {
		a.channelName = "#" + a.channelID
		if a.session.State != nil {
			if ch, err := a.session.State.Channel(a.channelID); err == nil && ch != nil && ch.Name != "" {
				a.channelName = "#" + ch.Name
				return
			}
		}
		ch, err := a.session.Channel(a.channelID)
		if err == nil && ch != nil && ch.Name != "" {
			a.channelName = "#" + ch.Name
		}
	})
	return a.channelName
}

func isRESTNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Response == nil {
		return false
	}
	return restErr.Response.StatusCode == http.StatusNotFound
}
