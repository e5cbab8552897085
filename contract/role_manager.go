package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Phig0r/sbt-verifiable-credentials/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var rmLogger = flogging.MustGetLogger("credregistry.rolemanager")

// roleObjectType keys one ledger entry per (role, identity) membership.
const roleObjectType = "RoleMember"

// RoleManager is the capability table: it stores role memberships and
// answers membership checks. Authorization policy, i.e. who may grant or
// revoke which role, lives in the contract operations that compose it.
type RoleManager struct {
	Ctx contractapi.TransactionContextInterface
}

// NewRoleManager creates a new instance of RoleManager.
func NewRoleManager(ctx contractapi.TransactionContextInterface) *RoleManager {
	return &RoleManager{Ctx: ctx}
}

func (rm *RoleManager) createRoleCompositeKey(role model.Role, identity string) (string, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return "", errors.New("identity cannot be empty")
	}
	return rm.Ctx.GetStub().CreateCompositeKey(roleObjectType, []string{string(role), identity})
}

// HasRole reports whether the identity currently holds the role. Identities
// never seen before simply hold no roles.
func (rm *RoleManager) HasRole(identity string, role model.Role) (bool, error) {
	roleKey, err := rm.createRoleCompositeKey(role, identity)
	if err != nil {
		return false, fmt.Errorf("failed to create role key for '%s'/'%s': %w", role, identity, err)
	}
	flagBytes, err := rm.Ctx.GetStub().GetState(roleKey)
	if err != nil {
		return false, fmt.Errorf("ledger error checking role '%s' for '%s': %w", role, identity, err)
	}
	return flagBytes != nil, nil
}

// RequireRole fails with ErrUnauthorized unless the identity holds the role.
// There is no admin bypass: every operation gates on the exact role it names.
func (rm *RoleManager) RequireRole(identity string, role model.Role) error {
	has, err := rm.HasRole(identity, role)
	if err != nil {
		return fmt.Errorf("error checking role '%s' for '%s': %w", role, identity, err)
	}
	if !has {
		return fmt.Errorf("%w: identity '%s' does not hold required role '%s'", ErrUnauthorized, identity, role)
	}
	rmLogger.Debugf("Role check passed for role '%s' for identity '%s'.", role, identity)
	return nil
}

// Grant writes the membership key for (role, identity). It reports whether
// the membership changed; granting a role already held takes no action.
func (rm *RoleManager) Grant(role model.Role, identity string) (bool, error) {
	has, err := rm.HasRole(identity, role)
	if err != nil {
		return false, err
	}
	if has {
		rmLogger.Infof("Role '%s' already assigned to identity '%s'. No action needed.", role, identity)
		return false, nil
	}
	roleKey, err := rm.createRoleCompositeKey(role, identity)
	if err != nil {
		return false, fmt.Errorf("failed to create role key for '%s'/'%s': %w", role, identity, err)
	}
	if err := rm.Ctx.GetStub().PutState(roleKey, []byte("true")); err != nil {
		return false, fmt.Errorf("failed to save role membership '%s' for '%s': %w", role, identity, err)
	}
	rmLogger.Infof("Role '%s' granted to identity '%s'.", role, identity)
	return true, nil
}

// Revoke deletes the membership key for (role, identity). It reports whether
// the membership changed; revoking a role not held takes no action.
func (rm *RoleManager) Revoke(role model.Role, identity string) (bool, error) {
	has, err := rm.HasRole(identity, role)
	if err != nil {
		return false, err
	}
	if !has {
		rmLogger.Infof("Role '%s' not held by identity '%s'. No action taken for revocation.", role, identity)
		return false, nil
	}
	roleKey, err := rm.createRoleCompositeKey(role, identity)
	if err != nil {
		return false, fmt.Errorf("failed to create role key for '%s'/'%s': %w", role, identity, err)
	}
	if err := rm.Ctx.GetStub().DelState(roleKey); err != nil {
		return false, fmt.Errorf("failed to delete role membership '%s' for '%s': %w", role, identity, err)
	}
	rmLogger.Infof("Role '%s' revoked from identity '%s'.", role, identity)
	return true, nil
}

// AnyRootAdminExists checks whether any root_admin membership is on the ledger.
func (rm *RoleManager) AnyRootAdminExists() (bool, error) {
	iterator, err := rm.Ctx.GetStub().GetStateByPartialCompositeKey(roleObjectType, []string{string(model.RoleRootAdmin)})
	if err != nil {
		return false, fmt.Errorf("failed to query root admin memberships: %w", err)
	}
	defer iterator.Close()
	return iterator.HasNext(), nil
}
