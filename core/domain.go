package core

import "context"

// AccountConfig links a GitHub account to the installation that delivers its events.
type AccountConfig struct {
	Account        string `json:"account"`
	InstallationID int64  `json:"installationId"`
}

// AccountInstallations is the resolver cache. Order follows the upstream config listing.
type AccountInstallations struct {
	Order    []string
	Accounts map[string][]AccountConfig
}

func (i AccountInstallations) Len() int {
	return len(i.Order)
}

// Find returns the first config carrying installationID, scanning accounts in upstream order.
func (i AccountInstallations) Find(installationID int64) (AccountConfig, bool) {
	for _, account := range i.Order {
		for _, cfg := range i.Accounts[account] {
			if cfg.InstallationID == installationID {
				return cfg, true
			}
		}
	}
	return AccountConfig{}, false
}

// AsMap returns a copy keyed by platform account.
func (i AccountInstallations) AsMap() map[string][]AccountConfig {
	out := make(map[string][]AccountConfig, len(i.Accounts))
	for account, configs := range i.Accounts {
		out[account] = append([]AccountConfig(nil), configs...)
	}
	return out
}

type AccountTokenSource interface {
	AccountToken(ctx context.Context, account string) (string, error)
}
