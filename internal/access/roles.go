// Package access gates keeper mutators on (role, address) grants that the
// module authority administers.
package access

import (
	"context"
	"errors"
	"strings"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
)

// ErrUnauthorized is returned when a caller lacks the required role.
var ErrUnauthorized = errorsmod.Register("access", 2, "unauthorized")

// Grant is a single role assignment.
type Grant struct {
	Role    string `json:"role"`
	Address string `json:"address"`
}

// Roles stores role grants under a module's store. The authority passes
// every role check.
type Roles struct {
	authority string
	grants    collections.KeySet[collections.Pair[string, string]]
}

// NewRoles registers the grant set on sb.
func NewRoles(sb *collections.SchemaBuilder, prefix collections.Prefix, authority string) Roles {
	return Roles{
		authority: strings.TrimSpace(authority),
		grants: collections.NewKeySet(
			sb,
			prefix,
			"role_grants",
			collections.PairKeyCodec(collections.StringKey, collections.StringKey),
		),
	}
}

// Authority returns the administering address.
func (r Roles) Authority() string {
	return r.authority
}

// RequireAuthority fails unless requester is the authority.
func (r Roles) RequireAuthority(requester string) error {
	return RequireAuthority(r.authority, requester)
}

// RequireAuthority fails unless requester is authority. Keepers without a
// role store gate their params with it.
func RequireAuthority(authority, requester string) error {
	if strings.TrimSpace(requester) != strings.TrimSpace(authority) {
		return errorsmod.Wrapf(ErrUnauthorized, "expected authority %s, got %s", authority, requester)
	}
	return nil
}

// Grant assigns role to account.
func (r Roles) Grant(ctx context.Context, requester, role, account string) error {
	if err := r.RequireAuthority(requester); err != nil {
		return err
	}
	return r.Set(ctx, role, account)
}

// Revoke removes role from account.
func (r Roles) Revoke(ctx context.Context, requester, role, account string) error {
	if err := r.RequireAuthority(requester); err != nil {
		return err
	}
	return r.grants.Remove(ctx, collections.Join(role, strings.TrimSpace(account)))
}

// Set records a grant without an authority check. Used by genesis and
// keeper wiring.
func (r Roles) Set(ctx context.Context, role, account string) error {
	role = strings.TrimSpace(role)
	account = strings.TrimSpace(account)
	if role == "" || account == "" {
		return errors.New("role and account are required")
	}
	return r.grants.Set(ctx, collections.Join(role, account))
}

// Has reports whether account holds role.
func (r Roles) Has(ctx context.Context, role, account string) (bool, error) {
	return r.grants.Has(ctx, collections.Join(role, strings.TrimSpace(account)))
}

// Require fails unless caller is the authority or holds one of roles.
func (r Roles) Require(ctx context.Context, caller string, roles ...string) error {
	caller = strings.TrimSpace(caller)
	if caller != "" && caller == r.authority {
		return nil
	}
	for _, role := range roles {
		ok, err := r.Has(ctx, role, caller)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return errorsmod.Wrapf(ErrUnauthorized, "%s lacks role %s", caller, strings.Join(roles, "|"))
}

// Export lists every grant in key order.
func (r Roles) Export(ctx context.Context) ([]Grant, error) {
	var out []Grant
	err := r.grants.Walk(ctx, nil, func(key collections.Pair[string, string]) (bool, error) {
		out = append(out, Grant{Role: key.K1(), Address: key.K2()})
		return false, nil
	})
	return out, err
}

// Import records grants, typically from genesis.
func (r Roles) Import(ctx context.Context, grants []Grant) error {
	for _, g := range grants {
		if err := r.Set(ctx, g.Role, g.Address); err != nil {
			return err
		}
	}
	return nil
}

// ValidateGrants checks that every grant names a role and an address.
func ValidateGrants(grants []Grant) error {
	for _, g := range grants {
		if strings.TrimSpace(g.Role) == "" || strings.TrimSpace(g.Address) == "" {
			return errors.New("role grant requires role and address")
		}
	}
	return nil
}
