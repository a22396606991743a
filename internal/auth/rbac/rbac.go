// Package rbac evaluates role permissions with casbin. Each role name is a
// subject and every permission key it holds is one policy line; the
// "all" key matches any request. Policies are reconciled against the role
// row loaded with each request, so a write made through another process is
// picked up on the next check.
package rbac

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/ifuryst/lol"
	"go.uber.org/zap"

	"github.com/apphub-org/apphub/internal/apiserver/database"
	"github.com/apphub-org/apphub/internal/common/cnst"
)

const modelText = `
[request_definition]
r = sub, perm

[policy_definition]
p = sub, perm

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && (r.perm == p.perm || p.perm == "` + cnst.PermissionAll + `")
`

// RoleLister is the part of the database the authorizer reads roles from
type RoleLister interface {
	ListRoles(ctx context.Context) ([]*database.Role, error)
}

// Authorizer answers "may role do perm". Safe for concurrent use.
type Authorizer struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
	logger   *zap.Logger

	// synced holds the permission fingerprint each role was last loaded with
	synced map[string]string
}

// NewAuthorizer creates an authorizer with no roles loaded
func NewAuthorizer(logger *zap.Logger) (*Authorizer, error) {
	e, err := newEnforcer()
	if err != nil {
		return nil, err
	}
	return &Authorizer{enforcer: e, synced: map[string]string{}, logger: logger.Named("rbac")}, nil
}

func newEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	return e, nil
}

// Load replaces every policy with the roles currently stored
func (a *Authorizer) Load(ctx context.Context, roles RoleLister) error {
	list, err := roles.ListRoles(ctx)
	if err != nil {
		return err
	}
	e, err := newEnforcer()
	if err != nil {
		return err
	}
	synced := make(map[string]string, len(list))
	for _, r := range list {
		if err := addRole(e, r.Name, r.Permissions); err != nil {
			return err
		}
		synced[r.Name] = fingerprint(r.Permissions)
	}

	a.mu.Lock()
	a.enforcer = e
	a.synced = synced
	a.mu.Unlock()
	a.logger.Info("permission policies loaded", zap.Int("roles", len(list)))
	return nil
}

// SetRole replaces the permissions of one role
func (a *Authorizer) SetRole(name string, permissions []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.setRole(name, permissions)
}

// RemoveRole drops every policy of a role
func (a *Authorizer) RemoveRole(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.synced, name)
	_, err := a.enforcer.RemoveFilteredPolicy(0, name)
	return err
}

// Authorize reports whether role grants perm. When the stored permissions
// differ from what the enforcer was loaded with, the role is reloaded from
// them first.
func (a *Authorizer) Authorize(role *database.Role, perm string) (bool, error) {
	if role == nil {
		return false, nil
	}
	fp := fingerprint(role.Permissions)
	a.mu.RLock()
	current, ok := a.synced[role.Name]
	a.mu.RUnlock()
	if !ok || current != fp {
		if err := a.refresh(role.Name, role.Permissions, fp); err != nil {
			return false, err
		}
	}
	return a.Can(role.Name, perm)
}

// Can reports whether role holds perm or the "all" permission
func (a *Authorizer) Can(role, perm string) (bool, error) {
	if role == "" || perm == "" {
		return false, nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enforcer.Enforce(role, perm)
}

func (a *Authorizer) refresh(name string, permissions []string, fp string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if current, ok := a.synced[name]; ok && current == fp {
		return nil
	}
	a.logger.Debug("role policy refreshed", zap.String("role", name))
	return a.setRole(name, permissions)
}

// setRole expects a.mu to be held for writing
func (a *Authorizer) setRole(name string, permissions []string) error {
	delete(a.synced, name)
	if _, err := a.enforcer.RemoveFilteredPolicy(0, name); err != nil {
		return err
	}
	if err := addRole(a.enforcer, name, permissions); err != nil {
		return err
	}
	a.synced[name] = fingerprint(permissions)
	return nil
}

func addRole(e *casbin.Enforcer, name string, permissions []string) error {
	if len(permissions) == 0 {
		return nil
	}
	// casbin rejects the whole batch if any rule repeats
	permissions = lol.UniqSlice(permissions)
	rules := make([][]string, 0, len(permissions))
	for _, p := range permissions {
		rules = append(rules, []string{name, p})
	}
	_, err := e.AddPolicies(rules)
	return err
}

func fingerprint(permissions []string) string {
	p := lol.UniqSlice(permissions)
	slices.Sort(p)
	return strings.Join(p, ",")
}
