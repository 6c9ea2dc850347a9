package notifications

import (
	"context"
	"fmt"

	nsfamilies "github.com/goliatone/go-nestsync/families"
	"github.com/goliatone/go-nestsync/internal/email"
	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
)

// InviteLinker renders the accept URL embedded in invitation email. The
// links builder satisfies it.
type InviteLinker interface {
	InviteURL(code string) (string, error)
}

// InviteNotifier delivers invitation lifecycle notices. A created invitation
// goes straight to the invitee's email because the recipient has no account
// yet; expiry notices land in the inviter's notification feed. It satisfies
// the families service's invite notifier.
type InviteNotifier struct {
	svc      Service
	users    UserDirectory
	mailer   email.Mailer
	linker   InviteLinker
	renderer *Renderer
	logger   interfaces.Logger
}

// NewInviteNotifier builds the bridge from family invitations to email and
// the notification queue. A nil linker drops the accept link from the email
// and leaves the join code as the only path in.
func NewInviteNotifier(svc Service, users UserDirectory, mailer email.Mailer, linker InviteLinker, logger interfaces.Logger) *InviteNotifier {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &InviteNotifier{
		svc:      svc,
		users:    users,
		mailer:   mailer,
		linker:   linker,
		renderer: MustNewRenderer(),
		logger:   logger,
	}
}

// InvitationCreated emails the join code to the invitee.
func (n *InviteNotifier) InvitationCreated(ctx context.Context, family *nsfamilies.Family, invitation *nsfamilies.FamilyInvitation) error {
	if invitation == nil || invitation.Email == nil {
		return nil
	}
	if n.mailer == nil || !n.mailer.Enabled() {
		n.logger.Debug("invitation email skipped, mailer disabled",
			"invitation_id", invitation.ID.String(),
		)
		return nil
	}

	data := map[string]any{
		"family_name":  family.Name,
		"inviter_name": n.inviterName(ctx, invitation),
		"code":         invitation.Code,
	}
	if url := n.acceptURL(invitation.Code); url != "" {
		data["accept_url"] = url
	}

	title, body, err := n.renderer.Render(TypeInvite, data)
	if err != nil {
		return err
	}

	msg := email.Message{
		To:       []string{*invitation.Email},
		Subject:  title,
		TextBody: body,
	}
	if html, err := n.renderer.HTML(body); err != nil {
		n.logger.Warn("invitation email html render failed, sending text only",
			"invitation_id", invitation.ID.String(), "error", err)
	} else {
		msg.HTMLBody = html
	}
	return n.mailer.Send(ctx, msg)
}

// InvitationExpired queues an in-app notice for the inviter so they can
// resend the invitation.
func (n *InviteNotifier) InvitationExpired(ctx context.Context, family *nsfamilies.Family, invitation *nsfamilies.FamilyInvitation) error {
	if invitation == nil || n.svc == nil {
		return nil
	}

	message := fmt.Sprintf("Your invitation to join **%s** expired before it was accepted.", family.Name)
	if invitation.Email != nil {
		message = fmt.Sprintf("Your invitation for %s to join **%s** expired before it was accepted.", *invitation.Email, family.Name)
	}

	_, err := n.svc.Enqueue(ctx, EnqueueNotificationRequest{
		UserID:   invitation.CreatedBy,
		FamilyID: invitation.FamilyID,
		Type:     TypeSystem,
		Data: map[string]any{
			"message":       message,
			"invitation_id": invitation.ID.String(),
		},
	})
	return err
}

func (n *InviteNotifier) inviterName(ctx context.Context, invitation *nsfamilies.FamilyInvitation) string {
	if n.users == nil {
		return "A caregiver"
	}
	user, err := n.users.Get(ctx, invitation.CreatedBy)
	if err != nil {
		n.logger.Warn("invitation inviter lookup failed",
			"invitation_id", invitation.ID.String(), "error", err)
		return "A caregiver"
	}
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.Email
}

func (n *InviteNotifier) acceptURL(code string) string {
	if n.linker == nil {
		return ""
	}
	url, err := n.linker.InviteURL(code)
	if err != nil {
		n.logger.Warn("invitation link build failed", "error", err)
		return ""
	}
	return url
}
