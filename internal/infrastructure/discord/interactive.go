package discord

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"PlateBot/internal/domain"
	"PlateBot/internal/ports"
)

var _ ports.InvitationBroadcaster = (*Gateway)(nil)
var _ ports.Announcer = (*Gateway)(nil)

// PresenterFor returns a presenter bound to one reviewer. Each session gets
// its own so presentations from concurrent sessions cannot cross wires.
func (g *Gateway) PresenterFor(identity string) ports.Presenter {
	return &presenter{gateway: g, identity: identity}
}

type presenter struct {
	gateway  *Gateway
	identity string

	mu        sync.Mutex
	nonce     string
	messageID string
}

// PresentCandidate posts the plate with decision buttons into the moderation
// channel and returns the stream of button presses.
func (p *presenter) PresentCandidate(_ context.Context, cand domain.Candidate, preview string) (<-chan ports.DecisionInput, error) {
	p.clear()

	g := p.gateway
	nonce := uuid.NewString()
	route := make(chan ports.DecisionInput, 8)
	g.mu.Lock()
	g.decisionRoutes[nonce] = route
	g.mu.Unlock()

	artifact, err := os.Open(cand.ArtifactPath)
	if err != nil {
		g.dropDecisionRoute(nonce)
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer artifact.Close()

	content := fmt.Sprintf("<@%s> Click the appropriate button to approve or disapprove this plate (`%s`). Please refer to the pins for moderation guidelines. This message will time out in **5 minutes**.\n```%s```",
		p.identity, cand.Record.Text, preview)

	msg, err := g.session.ChannelMessageSendComplex(g.cfg.ChannelID, &discordgo.MessageSend{
		Content: content,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Approve", Style: discordgo.PrimaryButton, CustomID: "review:" + nonce + ":approve"},
				discordgo.Button{Label: "Disapprove", Style: discordgo.DangerButton, CustomID: "review:" + nonce + ":disapprove"},
				discordgo.Button{Label: "I'm finished reviewing plates", Style: discordgo.SecondaryButton, CustomID: "review:" + nonce + ":finished"},
			}},
		},
		Files: []*discordgo.File{
			{Name: filepath.Base(cand.ArtifactPath), ContentType: "image/svg+xml", Reader: artifact},
		},
	})
	if err != nil {
		g.dropDecisionRoute(nonce)
		return nil, fmt.Errorf("present candidate: %w", err)
	}

	p.mu.Lock()
	p.nonce = nonce
	p.messageID = msg.ID
	p.mu.Unlock()

	return route, nil
}

// DismissCandidate retires the current presentation: the decision route is
// unregistered and the message loses its buttons.
func (p *presenter) DismissCandidate(_ context.Context) {
	p.clear()
}

// ConcludeReview retires the last presentation and tells the reviewer how
// the session ended.
func (p *presenter) ConcludeReview(_ context.Context, summary ports.ReviewSummary) error {
	p.clear()

	var text string
	switch {
	case summary.Exhausted:
		text = fmt.Sprintf("<@%s> There are no plates left to review! You approved **%d %s.**",
			summary.Initiator, summary.Approved, plural(summary.Approved, "plate"))
	case summary.TimedOut:
		text = fmt.Sprintf("<@%s> Stopped reviewing plates (timed out). You approved **%d %s.** You may always enter /review to restart the review process.",
			summary.Initiator, summary.Approved, plural(summary.Approved, "plate"))
	default:
		text = fmt.Sprintf("<@%s> Stopped reviewing plates. You approved **%d %s.** You may always enter /review to restart the review process and /queue to see all plates in queue to be posted.",
			summary.Initiator, summary.Approved, plural(summary.Approved, "plate"))
	}

	if msg := p.gateway.sendChannel(text); msg == nil {
		return fmt.Errorf("conclude review: channel message failed")
	}
	return nil
}

// clear unregisters the previous presentation and strips its buttons.
func (p *presenter) clear() {
	p.mu.Lock()
	nonce, messageID := p.nonce, p.messageID
	p.nonce, p.messageID = "", ""
	p.mu.Unlock()

	if nonce == "" {
		return
	}
	p.gateway.dropDecisionRoute(nonce)
	p.gateway.stripComponents(messageID)
}

func (g *Gateway) dropDecisionRoute(nonce string) {
	g.mu.Lock()
	delete(g.decisionRoutes, nonce)
	g.mu.Unlock()
}

func (g *Gateway) stripComponents(messageID string) {
	if messageID == "" {
		return
	}
	empty := []discordgo.MessageComponent{}
	_, err := g.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    g.cfg.ChannelID,
		ID:         messageID,
		Components: &empty,
	})
	if err != nil {
		g.logger.Warn("strip message components", "message", messageID, "error", err)
	}
}

// BroadcastReviewInvitation pings the moderator role with a claim button.
func (g *Gateway) BroadcastReviewInvitation(_ context.Context) (ports.Invitation, error) {
	nonce := uuid.NewString()
	claims := make(chan string, 4)
	g.mu.Lock()
	g.claimRoutes[nonce] = claims
	g.mu.Unlock()

	content := fmt.Sprintf("<@&%s> The queue is empty and new plates need to be reviewed!", g.cfg.ModeratorRoleID)
	msg, err := g.session.ChannelMessageSendComplex(g.cfg.ChannelID, &discordgo.MessageSend{
		Content: content,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Let me review some plates", Style: discordgo.PrimaryButton, CustomID: "claim:" + nonce},
			}},
		},
	})
	if err != nil {
		g.mu.Lock()
		delete(g.claimRoutes, nonce)
		g.mu.Unlock()
		return nil, fmt.Errorf("broadcast invitation: %w", err)
	}

	return &invitation{gateway: g, nonce: nonce, messageID: msg.ID, content: content, claims: claims}, nil
}

type invitation struct {
	gateway   *Gateway
	nonce     string
	messageID string
	content   string
	claims    chan string
}

// Claims streams identities pressing the claim button.
func (inv *invitation) Claims() <-chan string {
	return inv.claims
}

// MarkClaimed closes the invitation and records who took it.
func (inv *invitation) MarkClaimed(_ context.Context, identity string) error {
	inv.unregister()

	content := fmt.Sprintf("~~%s~~ <@%s> took the opportunity.", inv.content, identity)
	empty := []discordgo.MessageComponent{}
	_, err := inv.gateway.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    inv.gateway.cfg.ChannelID,
		ID:         inv.messageID,
		Content:    &content,
		Components: &empty,
	})
	if err != nil {
		return fmt.Errorf("mark invitation claimed: %w", err)
	}
	return nil
}

// Close withdraws an unclaimed invitation.
func (inv *invitation) Close() {
	inv.unregister()

	content := fmt.Sprintf("~~%s~~ The invitation expired.", inv.content)
	empty := []discordgo.MessageComponent{}
	_, err := inv.gateway.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    inv.gateway.cfg.ChannelID,
		ID:         inv.messageID,
		Content:    &content,
		Components: &empty,
	})
	if err != nil {
		inv.gateway.logger.Warn("close invitation", "error", err)
	}
}

func (inv *invitation) unregister() {
	inv.gateway.mu.Lock()
	delete(inv.gateway.claimRoutes, inv.nonce)
	inv.gateway.mu.Unlock()
}

// BeginPublish announces a dispatch and returns the callback that edits the
// announcement with the cumulative per-target results.
func (g *Gateway) BeginPublish(_ context.Context, entry domain.QueueEntry) (ports.ProgressFunc, error) {
	msg := g.sendChannel(fmt.Sprintf("Posting plate `%s`...", entry.Record.Text))
	if msg == nil {
		return nil, fmt.Errorf("begin publish: channel message failed")
	}

	return func(results []domain.TargetResult, finished bool) {
		var b strings.Builder
		fmt.Fprintf(&b, "Posting plate `%s`...", entry.Record.Text)
		if finished {
			b.WriteString(" finished!")
		}
		b.WriteString("\n")
		for _, r := range results {
			if r.OK() {
				fmt.Fprintf(&b, "**%s:** <%s>\n", r.Target, r.Locator)
			} else {
				fmt.Fprintf(&b, "**%s:** %s\n", r.Target, r.Err)
			}
		}

		content := b.String()
		_, err := g.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
			Channel: g.cfg.ChannelID,
			ID:      msg.ID,
			Content: &content,
		})
		if err != nil {
			g.logger.Warn("update publish announcement", "error", err)
		}
	}, nil
}

// AnnounceQueueDepth reports the remaining queue and refreshes the presence.
func (g *Gateway) AnnounceQueueDepth(_ context.Context, depth int) error {
	g.UpdateQueuePresence(depth)
	if msg := g.sendChannel(fmt.Sprintf("There %s **%d** %s left in the queue.", isAre(depth), depth, plural(depth, "plate"))); msg == nil {
		return fmt.Errorf("announce queue depth: channel message failed")
	}
	return nil
}
