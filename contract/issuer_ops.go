package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Phig0r/sbt-verifiable-credentials/model"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// issuerObjectType is used for composite keys and as a 'docType' for CouchDB queries.
const issuerObjectType = "IssuerInfo"

// --- Issuer Record Helpers ---

func (s *RegistrySmartContract) createIssuerCompositeKey(ctx contractapi.TransactionContextInterface, identity string) (string, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return "", errors.New("identity cannot be empty for issuer composite key")
	}
	key, err := ctx.GetStub().CreateCompositeKey(issuerObjectType, []string{identity})
	if err != nil {
		return "", fmt.Errorf("failed to create composite key for issuer '%s': %w", identity, err)
	}
	return key, nil
}

// getIssuerOrDefault loads an issuer record, returning the zero record when
// none is stored. Presence is decided by IssuerInfo.Exists (registration
// timestamp), never by role membership.
func (s *RegistrySmartContract) getIssuerOrDefault(ctx contractapi.TransactionContextInterface, identity string) (*model.IssuerInfo, error) {
	key, err := s.createIssuerCompositeKey(ctx, identity)
	if err != nil {
		return nil, err
	}
	data, err := ctx.GetStub().GetState(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read issuer record for '%s': %w", identity, err)
	}
	rec := &model.IssuerInfo{}
	if data == nil {
		return rec, nil
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal issuer record for '%s': %w", identity, err)
	}
	return rec, nil
}

func (s *RegistrySmartContract) saveIssuer(ctx contractapi.TransactionContextInterface, rec *model.IssuerInfo) error {
	key, err := s.createIssuerCompositeKey(ctx, rec.Identity)
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal issuer record for '%s': %w", rec.Identity, err)
	}
	if err := ctx.GetStub().PutState(key, data); err != nil {
		return fmt.Errorf("failed to persist issuer record for '%s': %w", rec.Identity, err)
	}
	return nil
}

// --- Issuer Lifecycle Operations ---

// AddIssuer admits a new issuer. The caller must hold the admin role. The
// identity receives the issuer role, an Active record stamped with the
// transaction time, and an IssuerAdded audit event, all in one transaction.
// Any existing record for the identity, whatever its status, rejects the
// call with ErrIssuerAlreadyExists; existence is decided by the record, not
// by role membership, so an orphaned role grant does not block admission.
func (s *RegistrySmartContract) AddIssuer(ctx contractapi.TransactionContextInterface, identity, name, endpoint string) error {
	logger.Infof("Chaincode Call: AddIssuer '%s' (name: '%s')", identity, name)
	identity = strings.TrimSpace(identity)

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("AddIssuer: failed to get current actor info: %w", err)
	}
	rm := NewRoleManager(ctx)
	if err := rm.RequireRole(actor.id, model.RoleAdmin); err != nil {
		return fmt.Errorf("AddIssuer: %w", err)
	}

	if err := s.validateRequiredString(identity, "identity", maxIdentityInputLength); err != nil {
		return fmt.Errorf("AddIssuer: %w", err)
	}
	if err := s.validateRequiredString(name, "name", maxStringInputLength); err != nil {
		return fmt.Errorf("AddIssuer: %w", err)
	}
	if err := s.validateOptionalString(endpoint, "endpoint", maxStringInputLength); err != nil {
		return fmt.Errorf("AddIssuer: %w", err)
	}

	rec, err := s.getIssuerOrDefault(ctx, identity)
	if err != nil {
		return fmt.Errorf("AddIssuer: %w", err)
	}
	if rec.Exists() {
		return fmt.Errorf("AddIssuer: %w: identity '%s' already has an issuer record (status '%s')", ErrIssuerAlreadyExists, identity, rec.Status)
	}

	if _, err := rm.Grant(model.RoleIssuer, identity); err != nil {
		return fmt.Errorf("AddIssuer: failed to grant issuer role to '%s': %w", identity, err)
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("AddIssuer: %w", err)
	}
	newRec := &model.IssuerInfo{
		ObjectType:    issuerObjectType,
		Identity:      identity,
		Name:          name,
		Endpoint:      endpoint,
		Status:        model.IssuerStatusActive,
		RegisteredBy:  actor.id,
		RegisteredAt:  now,
		LastUpdatedAt: now,
	}
	if err := s.saveIssuer(ctx, newRec); err != nil {
		return fmt.Errorf("AddIssuer: %w", err)
	}

	audit := newAuditLog(ctx)
	audit.Record(model.AuditEvent{
		Type:     model.EventIssuerAdded,
		Actor:    actor.id,
		ActorMSP: actor.mspID,
		Identity: identity,
	})
	if err := audit.Commit(); err != nil {
		return fmt.Errorf("AddIssuer: %w", err)
	}

	logger.Infof("Issuer '%s' added by '%s' with status '%s'", identity, actor.id, model.IssuerStatusActive)
	return nil
}

// UpdateIssuerStatus moves an issuer to a new lifecycle status. The caller
// must hold the admin role. Deactivated is terminal: every later transition
// for the identity, re-deactivation included, fails with
// ErrIssuerDeactivated. Repeating the current status fails with
// ErrStatusUnchanged, Active included. Deactivation strips the issuer role
// in the same transaction and appends an IssuerRoleRevoked entry to the
// trail alongside the status change.
func (s *RegistrySmartContract) UpdateIssuerStatus(ctx contractapi.TransactionContextInterface, identity, newStatus string) error {
	logger.Infof("Chaincode Call: UpdateIssuerStatus '%s' -> '%s'", identity, newStatus)
	identity = strings.TrimSpace(identity)

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return fmt.Errorf("UpdateIssuerStatus: failed to get current actor info: %w", err)
	}
	rm := NewRoleManager(ctx)
	if err := rm.RequireRole(actor.id, model.RoleAdmin); err != nil {
		return fmt.Errorf("UpdateIssuerStatus: %w", err)
	}

	if err := s.validateRequiredString(identity, "identity", maxIdentityInputLength); err != nil {
		return fmt.Errorf("UpdateIssuerStatus: %w", err)
	}
	parsedStatus, ok := model.ParseIssuerStatus(newStatus)
	if !ok {
		return fmt.Errorf("UpdateIssuerStatus: invalid status '%s' (valid statuses: %v)", newStatus, model.IssuerStatuses)
	}

	rec, err := s.getIssuerOrDefault(ctx, identity)
	if err != nil {
		return fmt.Errorf("UpdateIssuerStatus: %w", err)
	}
	if !rec.Exists() {
		return fmt.Errorf("UpdateIssuerStatus: %w: no issuer record for identity '%s'", ErrIssuerNotFound, identity)
	}
	if rec.Status.IsTerminal() {
		return fmt.Errorf("UpdateIssuerStatus: %w: issuer '%s' permits no further transitions", ErrIssuerDeactivated, identity)
	}
	if rec.Status == parsedStatus {
		return fmt.Errorf("UpdateIssuerStatus: %w: issuer '%s' already has status '%s'", ErrStatusUnchanged, identity, parsedStatus)
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("UpdateIssuerStatus: %w", err)
	}
	oldStatus := rec.Status
	rec.Status = parsedStatus
	rec.LastUpdatedAt = now
	if err := s.saveIssuer(ctx, rec); err != nil {
		return fmt.Errorf("UpdateIssuerStatus: %w", err)
	}

	audit := newAuditLog(ctx)
	audit.Record(model.AuditEvent{
		Type:      model.EventIssuerStatusUpdated,
		Actor:     actor.id,
		ActorMSP:  actor.mspID,
		Identity:  identity,
		OldStatus: oldStatus,
		NewStatus: parsedStatus,
	})

	if parsedStatus == model.IssuerStatusDeactivated {
		// The role strip is part of the deactivation itself; the trail
		// records it even if the grant was already gone.
		if _, err := rm.Revoke(model.RoleIssuer, identity); err != nil {
			return fmt.Errorf("UpdateIssuerStatus: failed to revoke issuer role from '%s': %w", identity, err)
		}
		audit.Record(model.AuditEvent{
			Type:     model.EventIssuerRoleRevoked,
			Actor:    actor.id,
			ActorMSP: actor.mspID,
			Identity: identity,
		})
	}

	if err := audit.Commit(); err != nil {
		return fmt.Errorf("UpdateIssuerStatus: %w", err)
	}

	logger.Infof("Issuer '%s' status updated from '%s' to '%s' by '%s'", identity, oldStatus, parsedStatus, actor.id)
	return nil
}
