package middleware

import (
	"fmt"
	"foodgram/domain"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Policy objects and actions.
const (
	ObjectCatalog = "catalog"
	ActionWrite   = "write"
)

const policyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// NewEnforcer builds the role policy: admins may change the tag and
// ingredient catalog, everybody else is read-only there.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("parse policy model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	if _, err := enforcer.AddPolicy(string(domain.RoleAdmin), ObjectCatalog, ActionWrite); err != nil {
		return nil, fmt.Errorf("add catalog policy: %w", err)
	}
	return enforcer, nil
}
