package contract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Phig0r/sbt-verifiable-credentials/model"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// credentialObjectType is used for composite keys and as a 'docType' for CouchDB queries.
const credentialObjectType = "CredentialRecord"

// Counter state for monotonic credential ids.
const (
	counterObjectType     = "Counter"
	credentialCounterName = "credential"
)

// paddedCredentialID renders an id at fixed width so range scans over
// credential keys come back in issuance order.
func paddedCredentialID(id uint64) string {
	return fmt.Sprintf("%020d", id)
}

func (s *RegistrySmartContract) createCredentialCompositeKey(ctx contractapi.TransactionContextInterface, id uint64) (string, error) {
	key, err := ctx.GetStub().CreateCompositeKey(credentialObjectType, []string{paddedCredentialID(id)})
	if err != nil {
		return "", fmt.Errorf("failed to create composite key for credential %d: %w", id, err)
	}
	return key, nil
}

func (s *RegistrySmartContract) createCredentialCounterKey(ctx contractapi.TransactionContextInterface) (string, error) {
	key, err := ctx.GetStub().CreateCompositeKey(counterObjectType, []string{credentialCounterName})
	if err != nil {
		return "", fmt.Errorf("failed to create credential counter key: %w", err)
	}
	return key, nil
}

// nextCredentialID reads the issuance counter. The counter stores the id
// the next successful issuance takes; a missing key means nothing was ever
// issued and the next id is 0.
func (s *RegistrySmartContract) nextCredentialID(ctx contractapi.TransactionContextInterface) (uint64, error) {
	key, err := s.createCredentialCounterKey(ctx)
	if err != nil {
		return 0, err
	}
	data, err := ctx.GetStub().GetState(key)
	if err != nil {
		return 0, fmt.Errorf("failed to read credential counter: %w", err)
	}
	if data == nil {
		return 0, nil
	}
	id, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("credential counter holds malformed value '%s': %w", string(data), err)
	}
	return id, nil
}

func (s *RegistrySmartContract) saveCredentialCounter(ctx contractapi.TransactionContextInterface, next uint64) error {
	key, err := s.createCredentialCounterKey(ctx)
	if err != nil {
		return err
	}
	if err := ctx.GetStub().PutState(key, []byte(strconv.FormatUint(next, 10))); err != nil {
		return fmt.Errorf("failed to persist credential counter: %w", err)
	}
	return nil
}

// --- Issuance ---

// IssueCredential mints a credential for a recipient and returns its id.
// Issuance is double-gated: the caller must hold the issuer role and must
// have an issuer record with Active status. A suspended issuer keeps the
// role grant but is blocked here by the status check. Ids come from the
// monotonic counter starting at 0; the counter advance, the record write
// and the audit entry land in one transaction, so a failed issuance leaves
// no trace and no id gap.
func (s *RegistrySmartContract) IssueCredential(ctx contractapi.TransactionContextInterface, recipient, recipientName, title string) (uint64, error) {
	logger.Infof("Chaincode Call: IssueCredential '%s' for recipient '%s'", title, recipient)
	recipient = strings.TrimSpace(recipient)

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("IssueCredential: failed to get current actor info: %w", err)
	}
	rm := NewRoleManager(ctx)
	if err := rm.RequireRole(actor.id, model.RoleIssuer); err != nil {
		return 0, fmt.Errorf("IssueCredential: %w", err)
	}

	issuerRec, err := s.getIssuerOrDefault(ctx, actor.id)
	if err != nil {
		return 0, fmt.Errorf("IssueCredential: %w", err)
	}
	if !issuerRec.Exists() {
		return 0, fmt.Errorf("IssueCredential: %w: identity '%s' has no issuer record", ErrIssuerNotActive, actor.id)
	}
	if issuerRec.Status != model.IssuerStatusActive {
		return 0, fmt.Errorf("IssueCredential: %w: issuer '%s' has status '%s'", ErrIssuerNotActive, actor.id, issuerRec.Status)
	}

	if err := s.validateRequiredString(recipient, "recipient", maxIdentityInputLength); err != nil {
		return 0, fmt.Errorf("IssueCredential: %w", err)
	}
	if err := s.validateRequiredString(recipientName, "recipientName", maxStringInputLength); err != nil {
		return 0, fmt.Errorf("IssueCredential: %w", err)
	}
	if err := s.validateRequiredString(title, "title", maxStringInputLength); err != nil {
		return 0, fmt.Errorf("IssueCredential: %w", err)
	}

	id, err := s.nextCredentialID(ctx)
	if err != nil {
		return 0, fmt.Errorf("IssueCredential: %w", err)
	}
	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return 0, fmt.Errorf("IssueCredential: %w", err)
	}

	credential := &model.CredentialRecord{
		ObjectType:    credentialObjectType,
		ID:            id,
		RecipientName: recipientName,
		Issuer:        actor.id,
		Title:         title,
		IssuedAt:      now,
	}
	if err := s.assignCredentialOwner(credential, recipient); err != nil {
		return 0, fmt.Errorf("IssueCredential: %w", err)
	}

	key, err := s.createCredentialCompositeKey(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("IssueCredential: %w", err)
	}
	data, err := json.Marshal(credential)
	if err != nil {
		return 0, fmt.Errorf("IssueCredential: failed to marshal credential %d: %w", id, err)
	}
	if err := ctx.GetStub().PutState(key, data); err != nil {
		return 0, fmt.Errorf("IssueCredential: failed to persist credential %d: %w", id, err)
	}
	if err := s.saveCredentialCounter(ctx, id+1); err != nil {
		return 0, fmt.Errorf("IssueCredential: %w", err)
	}

	audit := newAuditLog(ctx)
	audit.Record(model.AuditEvent{
		Type:         model.EventCredentialIssued,
		Actor:        actor.id,
		ActorMSP:     actor.mspID,
		CredentialID: &id,
		Issuer:       actor.id,
		Recipient:    recipient,
	})
	if err := audit.Commit(); err != nil {
		return 0, fmt.Errorf("IssueCredential: %w", err)
	}

	logger.Infof("Credential %d ('%s') issued by '%s' to '%s'", id, title, actor.id, recipient)
	return id, nil
}
