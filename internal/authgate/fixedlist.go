package authgate

import (
	"context"
	"crypto/subtle"
)

// The demo identity set mirrors the original dashboard: five literal
// identities, one literal password, and a static display-name table. This is
// a stand-in for a real credential store and is only wired in demo mode.
var demoDisplayNames = map[string]string{
	"admin":                 "Administrador del Sistema",
	"supervisor":            "Supervisor de Planta",
	"operador":              "Operador de Turno",
	"ingenieria@planta.com": "Departamento de Ingeniería",
	"documentos@planta.com": "Control de Documentos",
}

// DemoPassword is the fixed demo secret. It satisfies the password policy so
// the allow-list accounts pass the same rules the real store enforces.
const DemoPassword = "Planos2024!"

// FixedListIdentity is the demo IdentityStore: membership against the
// allow-list and exact (case-sensitive) comparison against DemoPassword.
type FixedListIdentity struct{}

func NewFixedListIdentity() *FixedListIdentity { return &FixedListIdentity{} }

func (f *FixedListIdentity) Exists(ctx context.Context, username string) (bool, error) {
	_, ok := demoDisplayNames[Normalize(username)]
	return ok, nil
}

func (f *FixedListIdentity) VerifySecret(ctx context.Context, username, secret string) (bool, error) {
	ok, err := f.Exists(ctx, username)
	if err != nil || !ok {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(DemoPassword)) == 1, nil
}

// DisplayName returns the static display name for an allow-list identity.
func (f *FixedListIdentity) DisplayName(username string) (string, bool) {
	name, ok := demoDisplayNames[Normalize(username)]
	return name, ok
}
