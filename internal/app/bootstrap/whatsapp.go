package bootstrap

import (
	"strings"

	"github.com/lumabot/wabridge/internal/channels/whatsapp"
	appconfig "github.com/lumabot/wabridge/internal/config"
)

// BuildWhatsAppClient returns the Graph API client used for outbound sends.
func BuildWhatsAppClient(cfg *appconfig.Config) *whatsapp.Client {
	client := whatsapp.NewClient(cfg.WhatsAppToken, cfg.PhoneNumberID)
	if base := strings.TrimSpace(cfg.GraphAPIBaseURL); base != "" {
		client.SetGraphAPIBase(base)
	}
	return client
}
