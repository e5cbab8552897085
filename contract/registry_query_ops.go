package contract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Phig0r/sbt-verifiable-credentials/model"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Query Functions ---

// getCredentialByID is an internal helper to retrieve and unmarshal a credential.
func (s *RegistrySmartContract) getCredentialByID(ctx contractapi.TransactionContextInterface, id uint64) (*model.CredentialRecord, error) {
	key, err := s.createCredentialCompositeKey(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := ctx.GetStub().GetState(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential %d from ledger: %w", id, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: no credential with id %d", ErrCredentialNotFound, id)
	}
	var credential model.CredentialRecord
	if err := json.Unmarshal(data, &credential); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential %d: %w", id, err)
	}
	return &credential, nil
}

// GetCredential returns the credential stored under an id. Public read.
func (s *RegistrySmartContract) GetCredential(ctx contractapi.TransactionContextInterface, credentialID string) (*model.CredentialRecord, error) {
	logger.Debugf("Chaincode Call: GetCredential '%s' (public access)", credentialID)

	id, err := strconv.ParseUint(strings.TrimSpace(credentialID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("GetCredential: invalid credential id '%s': %w", credentialID, err)
	}
	credential, err := s.getCredentialByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetCredential: %w", err)
	}
	return credential, nil
}

// GetCredentialCount returns how many credentials were ever issued, which
// is also the id the next successful issuance will take.
func (s *RegistrySmartContract) GetCredentialCount(ctx contractapi.TransactionContextInterface) (uint64, error) {
	logger.Debug("Chaincode Call: GetCredentialCount (public access)")

	count, err := s.nextCredentialID(ctx)
	if err != nil {
		return 0, fmt.Errorf("GetCredentialCount: %w", err)
	}
	return count, nil
}

// GetIssuer returns the issuer record for an identity. Public read. An
// identity that was never added yields the zero record rather than an
// error; callers decide presence via the registration timestamp.
func (s *RegistrySmartContract) GetIssuer(ctx contractapi.TransactionContextInterface, identity string) (*model.IssuerInfo, error) {
	logger.Debugf("Chaincode Call: GetIssuer '%s' (public access)", identity)

	if err := s.validateRequiredString(identity, "identity", maxIdentityInputLength); err != nil {
		return nil, fmt.Errorf("GetIssuer: %w", err)
	}
	rec, err := s.getIssuerOrDefault(ctx, strings.TrimSpace(identity))
	if err != nil {
		return nil, fmt.Errorf("GetIssuer: %w", err)
	}
	return rec, nil
}

// GetIssuers pages through every issuer record. Public read.
func (s *RegistrySmartContract) GetIssuers(ctx contractapi.TransactionContextInterface, pageSizeStr, bookmark string) (*model.PaginatedIssuerResponse, error) {
	pageSize, err := strconv.ParseInt(pageSizeStr, 10, 32)
	if err != nil || pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	logger.Debugf("Chaincode Call: GetIssuers (pageSize: %d, bookmark: '%s')", pageSize, bookmark)

	resultsIterator, metadata, err := ctx.GetStub().GetStateByPartialCompositeKeyWithPagination(issuerObjectType, []string{}, int32(pageSize), bookmark)
	if err != nil {
		return nil, fmt.Errorf("GetIssuers: failed to get issuers iterator: %w", err)
	}
	defer resultsIterator.Close()

	issuers := []*model.IssuerInfo{}
	fetchedCount := int32(0)

	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			logger.Warningf("GetIssuers: Error iterating results: %v. Skipping.", iterErr)
			continue
		}
		var rec model.IssuerInfo
		if errUnmarshal := json.Unmarshal(queryResponse.Value, &rec); errUnmarshal != nil {
			logger.Warningf("GetIssuers: Error unmarshalling issuer (key: %s): %v. Skipping.", queryResponse.Key, errUnmarshal)
			continue
		}
		issuers = append(issuers, &rec)
		fetchedCount++
	}

	return &model.PaginatedIssuerResponse{
		Issuers:      issuers, // Will be [] if empty, not null
		NextBookmark: metadata.GetBookmark(),
		FetchedCount: fetchedCount,
	}, nil
}

// GetCredentialsByRecipient pages through the credentials bound to one
// recipient. Credentials are keyed by id, so results follow issuance order.
func (s *RegistrySmartContract) GetCredentialsByRecipient(ctx contractapi.TransactionContextInterface, recipient, pageSizeStr, bookmark string) (*model.PaginatedCredentialResponse, error) {
	recipient = strings.TrimSpace(recipient)
	if err := s.validateRequiredString(recipient, "recipient", maxIdentityInputLength); err != nil {
		return nil, fmt.Errorf("GetCredentialsByRecipient: %w", err)
	}

	pageSize, err := strconv.ParseInt(pageSizeStr, 10, 32)
	if err != nil || pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	logger.Debugf("Chaincode Call: GetCredentialsByRecipient '%s' (pageSize: %d, bookmark: '%s')", recipient, pageSize, bookmark)

	// The scan window is pageSize keys; filtering happens inside it, so a
	// page may carry fewer matches while the bookmark still resumes losslessly.
	resultsIterator, metadata, err := ctx.GetStub().GetStateByPartialCompositeKeyWithPagination(credentialObjectType, []string{}, int32(pageSize), bookmark)
	if err != nil {
		return nil, fmt.Errorf("GetCredentialsByRecipient: failed to get credentials iterator: %w", err)
	}
	defer resultsIterator.Close()

	credentials := []*model.CredentialRecord{}
	fetchedCount := int32(0)

	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			logger.Warningf("GetCredentialsByRecipient: Error iterating results: %v. Skipping.", iterErr)
			continue
		}
		var credential model.CredentialRecord
		if errUnmarshal := json.Unmarshal(queryResponse.Value, &credential); errUnmarshal != nil {
			logger.Warningf("GetCredentialsByRecipient: Error unmarshalling credential: %v. Skipping.", errUnmarshal)
			continue
		}
		if credential.Recipient != recipient {
			continue
		}
		credentials = append(credentials, &credential)
		fetchedCount++
	}

	return &model.PaginatedCredentialResponse{
		Credentials:  credentials, // Will be [] if empty, not null
		NextBookmark: metadata.GetBookmark(),
		FetchedCount: fetchedCount,
	}, nil
}

// GetCredentialsByIssuer pages through the credentials minted by one issuer.
func (s *RegistrySmartContract) GetCredentialsByIssuer(ctx contractapi.TransactionContextInterface, issuer, pageSizeStr, bookmark string) (*model.PaginatedCredentialResponse, error) {
	issuer = strings.TrimSpace(issuer)
	if err := s.validateRequiredString(issuer, "issuer", maxIdentityInputLength); err != nil {
		return nil, fmt.Errorf("GetCredentialsByIssuer: %w", err)
	}

	pageSize, err := strconv.ParseInt(pageSizeStr, 10, 32)
	if err != nil || pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	logger.Debugf("Chaincode Call: GetCredentialsByIssuer '%s' (pageSize: %d, bookmark: '%s')", issuer, pageSize, bookmark)

	// Same windowed scan as GetCredentialsByRecipient: filter inside a
	// pageSize window and let the bookmark resume where the window ended.
	resultsIterator, metadata, err := ctx.GetStub().GetStateByPartialCompositeKeyWithPagination(credentialObjectType, []string{}, int32(pageSize), bookmark)
	if err != nil {
		return nil, fmt.Errorf("GetCredentialsByIssuer: failed to get credentials iterator: %w", err)
	}
	defer resultsIterator.Close()

	credentials := []*model.CredentialRecord{}
	fetchedCount := int32(0)

	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			logger.Warningf("GetCredentialsByIssuer: Error iterating results: %v. Skipping.", iterErr)
			continue
		}
		var credential model.CredentialRecord
		if errUnmarshal := json.Unmarshal(queryResponse.Value, &credential); errUnmarshal != nil {
			logger.Warningf("GetCredentialsByIssuer: Error unmarshalling credential: %v. Skipping.", errUnmarshal)
			continue
		}
		if credential.Issuer != issuer {
			continue
		}
		credentials = append(credentials, &credential)
		fetchedCount++
	}

	return &model.PaginatedCredentialResponse{
		Credentials:  credentials, // Will be [] if empty, not null
		NextBookmark: metadata.GetBookmark(),
		FetchedCount: fetchedCount,
	}, nil
}

// GetAuditEvents pages through the audit trail. Entries are keyed by
// (txId, index); entries of one transaction stay adjacent and in recording
// order, while ordering across transactions follows key order.
func (s *RegistrySmartContract) GetAuditEvents(ctx contractapi.TransactionContextInterface, pageSizeStr, bookmark string) (*model.PaginatedAuditEventResponse, error) {
	pageSize, err := strconv.ParseInt(pageSizeStr, 10, 32)
	if err != nil || pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	logger.Debugf("Chaincode Call: GetAuditEvents (pageSize: %d, bookmark: '%s')", pageSize, bookmark)

	resultsIterator, metadata, err := ctx.GetStub().GetStateByPartialCompositeKeyWithPagination(auditObjectType, []string{}, int32(pageSize), bookmark)
	if err != nil {
		return nil, fmt.Errorf("GetAuditEvents: failed to get audit trail iterator: %w", err)
	}
	defer resultsIterator.Close()

	events := []model.AuditEvent{}
	fetchedCount := int32(0)

	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			logger.Warningf("GetAuditEvents: Error iterating results: %v. Skipping.", iterErr)
			continue
		}
		var event model.AuditEvent
		if errUnmarshal := json.Unmarshal(queryResponse.Value, &event); errUnmarshal != nil {
			logger.Warningf("GetAuditEvents: Error unmarshalling audit entry (key: %s): %v. Skipping.", queryResponse.Key, errUnmarshal)
			continue
		}
		events = append(events, event)
		fetchedCount++
	}

	return &model.PaginatedAuditEventResponse{
		Events:       events, // Will be [] if empty, not null
		NextBookmark: metadata.GetBookmark(),
		FetchedCount: fetchedCount,
	}, nil
}
