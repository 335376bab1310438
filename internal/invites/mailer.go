package invites

import (
	"context"
	"fmt"
	"time"

	"github.com/farhanmajid/bazario-backend/pkg/logger"
)

// Mailer delivers invitation links. Wire a real transport in deployments
// that send mail; the default implementation only logs.
type Mailer interface {
	SendInvite(ctx context.Context, email, acceptURL string, expiresAt time.Time) error
}

// LogMailer writes the invite to the structured log instead of sending it.
type LogMailer struct {
	logg *logger.Logger
}

// NewLogMailer builds the logging transport.
func NewLogMailer(logg *logger.Logger) (*LogMailer, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LogMailer{logg: logg}, nil
}

func (m *LogMailer) SendInvite(ctx context.Context, email, acceptURL string, expiresAt time.Time) error {
	ctx = m.logg.WithFields(ctx, map[string]any{
		"email":      email,
		"accept_url": acceptURL,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
	m.logg.Info(ctx, "invite issued")
	return nil
}
