package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"PlateBot/internal/config"
	"PlateBot/internal/domain"
	"PlateBot/internal/ports"
	"PlateBot/internal/queue"
)

// Core is the set of application operations the gateway routes commands into.
type Core interface {
	// StartReview runs a review session for the identity; it blocks until
	// the session ends.
	StartReview(ctx context.Context, identity string) error

	// QueueTexts lists the queued plate texts in publish order.
	QueueTexts() []string

	// PublishNext dequeues and publishes one entry. Returns
	// queue.ErrEmptyQueue when there is nothing to post.
	PublishNext(ctx context.Context) error

	// PublishCustom publishes a community submission, bypassing the queue.
	PublishCustom(ctx context.Context, sub domain.Submission) error

	// RefreshProfiles pushes the completion bio to every target.
	RefreshProfiles(ctx context.Context) error

	// RenderPlate draws a one-off plate artifact for the given text.
	RenderPlate(ctx context.Context, text string) (string, error)
}

// Gateway is the moderation-side Discord adapter: it deploys the slash
// commands, routes them into the core, and implements the interactive
// presenter, invitation and announcer ports on top of channel messages with
// buttons.
type Gateway struct {
	cfg     config.DiscordConfig
	session *discordgo.Session
	core    Core
	logger  *slog.Logger

	mu             sync.Mutex
	decisionRoutes map[string]chan ports.DecisionInput
	claimRoutes    map[string]chan string
}

// New builds the gateway; Bind and Start complete the wiring.
func New(cfg config.DiscordConfig, logger *slog.Logger) (*Gateway, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord gateway misconfigured: no token")
	}
	if logger == nil {
		logger = slog.Default()
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("new discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildMembers | discordgo.IntentGuildMessages

	return &Gateway{
		cfg:            cfg,
		session:        session,
		logger:         logger,
		decisionRoutes: map[string]chan ports.DecisionInput{},
		claimRoutes:    map[string]chan string{},
	}, nil
}

// Bind attaches the application core. Must happen before Start.
func (g *Gateway) Bind(core Core) {
	g.core = core
}

// Start logs in, deploys the commands and begins routing interactions.
func (g *Gateway) Start(ctx context.Context) error {
	if g.core == nil {
		return fmt.Errorf("discord gateway started without a bound core")
	}

	g.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		g.onInteraction(ctx, i)
	})

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	me, err := g.session.User("@me")
	if err != nil {
		return fmt.Errorf("identify bot user: %w", err)
	}
	g.logger.Info("logged into discord", "user", me.Username, "id", me.ID)

	if err := g.deployCommands(me.ID); err != nil {
		return fmt.Errorf("deploy commands: %w", err)
	}

	return nil
}

// Stop closes the underlying session.
func (g *Gateway) Stop() error {
	return g.session.Close()
}

// SendLog mirrors one log line into the log channel, when one is
// configured. Failures are swallowed: reporting them through the logger
// would feed the line straight back here.
func (g *Gateway) SendLog(line string) {
	if g.cfg.LogChannelID == "" {
		return
	}
	_, _ = g.session.ChannelMessageSend(g.cfg.LogChannelID, "```"+line+"```")
}

// UpdateQueuePresence sets the bot's presence line to the current depth.
func (g *Gateway) UpdateQueuePresence(depth int) {
	if err := g.session.UpdateGameStatus(0, fmt.Sprintf("%d %s left to be posted", depth, plural(depth, "plate"))); err != nil {
		g.logger.Warn("update presence", "error", err)
	}
}

func (g *Gateway) deployCommands(appID string) error {
	commands := []*discordgo.ApplicationCommand{
		{Name: "ping", Description: "Replies with pong!"},
		{Name: "review", Description: "Review some plates"},
		{Name: "queue", Description: "Returns the plates in the queue"},
		{Name: "post", Description: "Manually posts the next plate in queue"},
		{
			Name:        "post_custom",
			Description: "Make a custom post (will be tagged as community submission)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "plate",
					Description: "What text to put on the license plate. Must be 9 characters or less.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "customer_comment",
					Description: "What the customer's spiel is. Max 190 characters.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "dmv_comment",
					Description: "What the DMV's response is. Max 190 characters.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "verdict",
					Description: "What the final verdict is. True = APPROVED, False = DENIED",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "submitter",
					Description: "The handle of the account that submitted this. Omit for \"Anonymous User\".",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "draft",
					Description: "Whether this should be posted quietly or not. Default: True",
					Required:    false,
				},
			},
		},
		{Name: "run", Description: "Manually run the bot!"},
		{Name: "bio", Description: "Updates the bot's bio"},
		{
			Name:        "plate",
			Description: "Create a plate with custom text",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "What text to put on the license plate. Must be 9 characters or less.",
					Required:    true,
				},
			},
		},
	}

	for _, cmd := range commands {
		if _, err := g.session.ApplicationCommandCreate(appID, g.cfg.GuildID, cmd); err != nil {
			return fmt.Errorf("create command %s: %w", cmd.Name, err)
		}
	}

	return nil
}

func (g *Gateway) onInteraction(ctx context.Context, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		g.handleCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		g.handleComponent(i)
	}
}

func (g *Gateway) handleCommand(ctx context.Context, i *discordgo.InteractionCreate) {
	identity := interactionIdentity(i)
	if identity == "" {
		return
	}
	if !g.allowed(i, identity) {
		g.logger.Info("interaction rejected", "identity", identity, "command", i.ApplicationCommandData().Name)
		return
	}

	if err := g.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		g.logger.Warn("defer interaction", "error", err)
		return
	}

	switch i.ApplicationCommandData().Name {
	case "ping":
		g.editReply(i, "Pong!")

	case "review":
		g.editReply(i, "Starting a review session. Watch this channel for the first plate.")
		go func() {
			if err := g.core.StartReview(ctx, identity); err != nil {
				g.logger.Error("review session", "initiator", identity, "error", err)
				g.sendChannel(fmt.Sprintf("<@%s> Your review session hit an error: %v. Run /review to try again.", identity, err))
			}
		}()

	case "queue":
		texts := g.core.QueueTexts()
		if len(texts) == 0 {
			g.editReply(i, "There are no plates in the queue.")
			break
		}
		quoted := make([]string, len(texts))
		for n, text := range texts {
			quoted[n] = "`" + text + "`"
		}
		g.editReply(i, fmt.Sprintf("There %s **%d** %s left to be posted, and they are (from first to last): %s.",
			isAre(len(texts)), len(texts), plural(len(texts), "plate"), strings.Join(quoted, ", ")))

	case "post", "run":
		if !g.isOwner(identity) {
			g.editReply(i, "You are not authorized to use this command.")
			break
		}
		g.editReply(i, "Posting plate...")
		if err := g.core.PublishNext(ctx); err != nil {
			if errors.Is(err, queue.ErrEmptyQueue) {
				g.editReply(i, "There is no plate to post - please review some plates first.")
			} else {
				g.logger.Error("manual publish", "error", err)
				g.editReply(i, fmt.Sprintf("Posting failed: %v", err))
			}
			break
		}
		g.editReply(i, "Posted plate!")

	case "post_custom":
		if !g.isOwner(identity) {
			g.editReply(i, "You are not authorized to use this command.")
			break
		}
		sub := domain.Submission{Draft: true}
		for _, opt := range i.ApplicationCommandData().Options {
			switch opt.Name {
			case "plate":
				sub.Text = strings.ToUpper(strings.TrimSpace(opt.StringValue()))
			case "customer_comment":
				sub.CustomerComment = opt.StringValue()
			case "dmv_comment":
				sub.DMVComment = opt.StringValue()
			case "verdict":
				sub.Approved = opt.BoolValue()
			case "submitter":
				sub.Submitter = strings.TrimSpace(opt.StringValue())
			case "draft":
				sub.Draft = opt.BoolValue()
			}
		}
		g.editReply(i, "Posting plate...")
		if err := g.core.PublishCustom(ctx, sub); err != nil {
			g.logger.Error("custom publish", "text", sub.Text, "error", err)
			g.editReply(i, fmt.Sprintf("Posting failed: %v", err))
			break
		}
		g.editReply(i, "Posted plate!")

	case "bio":
		if !g.isOwner(identity) {
			g.editReply(i, "You are not authorized to use this command.")
			break
		}
		if err := g.core.RefreshProfiles(ctx); err != nil {
			g.editReply(i, fmt.Sprintf("Bio refresh failed: %v", err))
			break
		}
		g.editReply(i, "Refreshed bio!")

	case "plate":
		text := strings.ToUpper(strings.TrimSpace(i.ApplicationCommandData().Options[0].StringValue()))
		path, err := g.core.RenderPlate(ctx, text)
		if err != nil {
			g.editReply(i, fmt.Sprintf("Could not draw that plate: %v", err))
			break
		}
		g.editReplyWithFile(i, "Here's your custom plate:", path)
	}
}

func (g *Gateway) handleComponent(i *discordgo.InteractionCreate) {
	identity := interactionIdentity(i)
	if identity == "" || !g.allowed(i, identity) {
		return
	}

	customID := i.MessageComponentData().CustomID
	if err := g.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		g.logger.Warn("ack component", "error", err)
	}

	parts := strings.Split(customID, ":")
	switch {
	case len(parts) == 3 && parts[0] == "review":
		g.routeDecision(parts[1], parts[2], identity)
	case len(parts) == 2 && parts[0] == "claim":
		g.routeClaim(parts[1], identity)
	}
}

func (g *Gateway) routeDecision(nonce, action, identity string) {
	var decision ports.Decision
	switch action {
	case "approve":
		decision = ports.DecisionApprove
	case "disapprove":
		decision = ports.DecisionReject
	case "finished":
		decision = ports.DecisionFinish
	default:
		return
	}

	g.mu.Lock()
	route := g.decisionRoutes[nonce]
	g.mu.Unlock()
	if route == nil {
		return
	}

	select {
	case route <- ports.DecisionInput{Identity: identity, Decision: decision}:
	default:
		g.logger.Warn("decision dropped, route full", "nonce", nonce, "identity", identity)
	}
}

func (g *Gateway) routeClaim(nonce, identity string) {
	g.mu.Lock()
	route := g.claimRoutes[nonce]
	g.mu.Unlock()
	if route == nil {
		return
	}

	select {
	case route <- identity:
	default:
	}
}

// allowed mirrors the moderation-channel rules: owners always pass; everyone
// else needs the moderator role and must act in the moderation channel.
func (g *Gateway) allowed(i *discordgo.InteractionCreate, identity string) bool {
	if g.isOwner(identity) {
		return true
	}
	if i.ChannelID != g.cfg.ChannelID {
		return false
	}
	if i.Member == nil || (i.Member.User != nil && i.Member.User.Bot) {
		return false
	}
	for _, role := range i.Member.Roles {
		if role == g.cfg.ModeratorRoleID {
			return true
		}
	}
	return false
}

func (g *Gateway) isOwner(identity string) bool {
	for _, owner := range g.cfg.OwnerUserIDs {
		if owner == identity {
			return true
		}
	}
	return false
}

func (g *Gateway) editReply(i *discordgo.InteractionCreate, content string) {
	if _, err := g.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		g.logger.Warn("edit reply", "error", err)
	}
}

func (g *Gateway) editReplyWithFile(i *discordgo.InteractionCreate, content, path string) {
	f, err := os.Open(path)
	if err != nil {
		g.logger.Warn("open attachment", "path", path, "error", err)
		g.editReply(i, content)
		return
	}
	defer f.Close()

	_, err = g.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
		Files: []*discordgo.File{
			{Name: filepath.Base(path), ContentType: "image/svg+xml", Reader: f},
		},
	})
	if err != nil {
		g.logger.Warn("edit reply with file", "error", err)
	}
}

func (g *Gateway) sendChannel(content string) *discordgo.Message {
	msg, err := g.session.ChannelMessageSend(g.cfg.ChannelID, content)
	if err != nil {
		g.logger.Warn("send channel message", "error", err)
		return nil
	}
	return msg
}

func interactionIdentity(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func isAre(n int) string {
	if n == 1 {
		return "is"
	}
	return "are"
}
