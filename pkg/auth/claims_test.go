package auth

import (
	"testing"

	"github.com/bidzilla/bidzilla-web/pkg/models"
)

func TestClaims_MarketplaceRole(t *testing.T) {
	tests := []struct {
		name   string
		claims *Claims
		want   models.Role
	}{
		{name: "nil claims", claims: nil, want: ""},
		{name: "buyer", claims: &Claims{Role: "BUYER"}, want: models.RoleBuyer},
		{name: "lowercase seller", claims: &Claims{Role: "seller"}, want: models.RoleSeller},
		{name: "missing role", claims: &Claims{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.claims.MarketplaceRole(); got != tt.want {
				t.Errorf("MarketplaceRole() = %q, want %q", got, tt.want)
			}
		})
	}
}
