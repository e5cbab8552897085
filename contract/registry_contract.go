package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Phig0r/sbt-verifiable-credentials/model"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("credregistry.registrycontract")

// Constants for input validation and limits
const (
	maxStringInputLength   = 256
	maxIdentityInputLength = 512 // X.509-derived client identities run long
)

// RegistrySmartContract manages a permissioned registry of credential
// issuers and the non-transferable credentials they mint.
// @contract:RegistrySmartContract
type RegistrySmartContract struct {
	contractapi.Contract
}

// actorInfo holds commonly needed details about the transaction invoker.
type actorInfo struct {
	id    string
	mspID string
}

// Instantiate is called during chaincode instantiation.
// It's a lifecycle method of the contract.
func (s *RegistrySmartContract) Instantiate(ctx contractapi.TransactionContextInterface) {
	logger.Info("RegistrySmartContract Instantiated/Upgraded")
}

// --- Bootstrap ---

// InitRegistry seeds the capability table with the invoking identity as the
// first root admin and records a RoleGranted audit event. It runs once per
// registry: as soon as any root admin exists, re-running it is rejected.
func (s *RegistrySmartContract) InitRegistry(ctx contractapi.TransactionContextInterface) error {
	logger.Info("Chaincode Call: InitRegistry")

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("InitRegistry: failed to get current actor info: %w", err)
	}

	rm := NewRoleManager(ctx)
	bootstrapped, err := rm.AnyRootAdminExists()
	if err != nil {
		return fmt.Errorf("InitRegistry: failed to check for existing root admins: %w", err)
	}
	if bootstrapped {
		return errors.New("registry is already initialized. InitRegistry should not be re-run")
	}

	if _, err := rm.Grant(model.RoleRootAdmin, actor.id); err != nil {
		return fmt.Errorf("InitRegistry: failed to grant role '%s' to '%s': %w", model.RoleRootAdmin, actor.id, err)
	}

	audit := newAuditLog(ctx)
	audit.Record(model.AuditEvent{
		Type:     model.EventRoleGranted,
		Actor:    actor.id,
		ActorMSP: actor.mspID,
		Identity: actor.id,
		Role:     model.RoleRootAdmin,
	})
	if err := audit.Commit(); err != nil {
		return fmt.Errorf("InitRegistry: %w", err)
	}

	logger.Infof("Registry initialized: '%s' is the first root admin", actor.id)
	return nil
}

// --- Role Management ---

// GrantRole grants a role to an identity. The caller must hold the role's
// administering role (root_admin administers root_admin and admin; admin
// administers issuer). Granting a role the identity already holds is a
// no-op and emits no event. An identity whose issuer record was deactivated
// can never regain the issuer role.
func (s *RegistrySmartContract) GrantRole(ctx contractapi.TransactionContextInterface, role, identity string) error {
	logger.Infof("Chaincode Call: GrantRole '%s' to '%s'", role, identity)
	identity = strings.TrimSpace(identity)

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("GrantRole: failed to get current actor info: %w", err)
	}
	parsedRole, ok := model.ParseRole(role)
	if !ok {
		return fmt.Errorf("GrantRole: invalid role '%s' (valid roles: %v)", role, model.Roles)
	}

	rm := NewRoleManager(ctx)
	if err := rm.RequireRole(actor.id, parsedRole.AdminRole()); err != nil {
		return fmt.Errorf("GrantRole: %w", err)
	}
	if err := s.validateRequiredString(identity, "identity", maxIdentityInputLength); err != nil {
		return fmt.Errorf("GrantRole: %w", err)
	}

	if parsedRole == model.RoleIssuer {
		rec, err := s.getIssuerOrDefault(ctx, identity)
		if err != nil {
			return fmt.Errorf("GrantRole: %w", err)
		}
		if rec.Exists() && rec.Status.IsTerminal() {
			return fmt.Errorf("GrantRole: %w: identity '%s' cannot regain the issuer role", ErrIssuerDeactivated, identity)
		}
	}

	changed, err := rm.Grant(parsedRole, identity)
	if err != nil {
		return fmt.Errorf("GrantRole: %w", err)
	}
	if !changed {
		return nil
	}

	audit := newAuditLog(ctx)
	audit.Record(model.AuditEvent{
		Type:     model.EventRoleGranted,
		Actor:    actor.id,
		ActorMSP: actor.mspID,
		Identity: identity,
		Role:     parsedRole,
	})
	if err := audit.Commit(); err != nil {
		return fmt.Errorf("GrantRole: %w", err)
	}
	return nil
}

// RevokeRole removes a role from an identity. Authorization mirrors
// GrantRole. Revoking a role the identity does not hold is a no-op and
// emits no event. Nothing stops a root admin from revoking the last
// root_admin membership; guarding against lockout is an operational
// concern, not a ledger one.
func (s *RegistrySmartContract) RevokeRole(ctx contractapi.TransactionContextInterface, role, identity string) error {
	logger.Infof("Chaincode Call: RevokeRole '%s' from '%s'", role, identity)
	identity = strings.TrimSpace(identity)

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("RevokeRole: failed to get current actor info: %w", err)
	}
	parsedRole, ok := model.ParseRole(role)
	if !ok {
		return fmt.Errorf("RevokeRole: invalid role '%s' (valid roles: %v)", role, model.Roles)
	}

	rm := NewRoleManager(ctx)
	if err := rm.RequireRole(actor.id, parsedRole.AdminRole()); err != nil {
		return fmt.Errorf("RevokeRole: %w", err)
	}
	if err := s.validateRequiredString(identity, "identity", maxIdentityInputLength); err != nil {
		return fmt.Errorf("RevokeRole: %w", err)
	}

	changed, err := rm.Revoke(parsedRole, identity)
	if err != nil {
		return fmt.Errorf("RevokeRole: %w", err)
	}
	if !changed {
		return nil
	}

	audit := newAuditLog(ctx)
	audit.Record(model.AuditEvent{
		Type:     model.EventRoleRevoked,
		Actor:    actor.id,
		ActorMSP: actor.mspID,
		Identity: identity,
		Role:     parsedRole,
	})
	if err := audit.Commit(); err != nil {
		return fmt.Errorf("RevokeRole: %w", err)
	}
	return nil
}

// HasRole reports whether an identity holds a role. It is a public read
// with no caller requirement. A role outside the taxonomy is held by no
// one, so the check returns false rather than erroring.
func (s *RegistrySmartContract) HasRole(ctx contractapi.TransactionContextInterface, identity, role string) (bool, error) {
	logger.Debugf("Chaincode Call: HasRole '%s' for '%s' (public access)", role, identity)

	parsedRole, ok := model.ParseRole(role)
	if !ok {
		return false, nil
	}
	has, err := NewRoleManager(ctx).HasRole(strings.TrimSpace(identity), parsedRole)
	if err != nil {
		return false, fmt.Errorf("HasRole: %w", err)
	}
	return has, nil
}
