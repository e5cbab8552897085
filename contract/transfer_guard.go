package contract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Phig0r/sbt-verifiable-credentials/model"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// assignCredentialOwner binds a credential to its owner. It is the only
// path that writes the recipient field, and it accepts exactly one
// assignment per record: the prior owner must still be the empty no-owner
// sentinel. Anything else is a forbidden transfer.
func (s *RegistrySmartContract) assignCredentialOwner(credential *model.CredentialRecord, owner string) error {
	if credential.Recipient != "" {
		return fmt.Errorf("%w: credential %d is already bound to '%s'", ErrTransferForbidden, credential.ID, credential.Recipient)
	}
	credential.Recipient = owner
	return nil
}

// TransferCredential always fails. Ownership is assigned exactly once, at
// mint, and never moves afterwards; no role, root admin included, is
// exempt. An id that was never issued fails with ErrCredentialNotFound,
// everything else with ErrTransferForbidden.
func (s *RegistrySmartContract) TransferCredential(ctx contractapi.TransactionContextInterface, credentialID, newOwner string) error {
	logger.Infof("Chaincode Call: TransferCredential %s to '%s'", credentialID, newOwner)

	id, err := strconv.ParseUint(strings.TrimSpace(credentialID), 10, 64)
	if err != nil {
		return fmt.Errorf("TransferCredential: invalid credential id '%s': %w", credentialID, err)
	}
	credential, err := s.getCredentialByID(ctx, id)
	if err != nil {
		return fmt.Errorf("TransferCredential: %w", err)
	}
	if err := s.assignCredentialOwner(credential, strings.TrimSpace(newOwner)); err != nil {
		return fmt.Errorf("TransferCredential: %w", err)
	}
	// A stored record is always owner-bound, so the guard above fires for
	// every real credential; refuse all the same and persist nothing.
	return fmt.Errorf("TransferCredential: %w", ErrTransferForbidden)
}
