package dispatch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mitchellh/mapstructure"
)

// Identity is the signed-in user as reported by GET /me.
type Identity struct {
	ID          string `mapstructure:"id" json:"id"`
	DisplayName string `mapstructure:"displayName" json:"display_name"`
	Mail        string `mapstructure:"mail" json:"mail"`
	UPN         string `mapstructure:"userPrincipalName" json:"user_principal_name,omitempty"`
}

// Probe checks Graph connectivity by fetching the signed-in user.
func (d *Dispatcher) Probe(ctx context.Context) (*Identity, error) {
	result, err := d.Call(ctx, Request{Method: http.MethodGet, Endpoint: "/me"})
	if err != nil {
		return nil, fmt.Errorf("graph connection test failed: %w", err)
	}

	var id Identity
	if err := mapstructure.Decode(result, &id); err != nil {
		return nil, fmt.Errorf("failed to decode /me response: %w", err)
	}
	return &id, nil
}
