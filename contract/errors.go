package contract

import "errors"

// Sentinel errors forming the registry's failure taxonomy. Operations wrap
// them with call-site detail; callers distinguish outcomes with errors.Is.
// A returned error aborts the transaction, so every failure below leaves
// the ledger untouched.
var (
	// ErrUnauthorized rejects a caller that does not hold the role an operation requires.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrIssuerAlreadyExists rejects admission of an identity that already has an issuer record.
	ErrIssuerAlreadyExists = errors.New("issuer already exists")

	// ErrIssuerNotFound rejects lifecycle operations on identities with no issuer record.
	ErrIssuerNotFound = errors.New("issuer not found")

	// ErrIssuerDeactivated rejects transitions out of the terminal status and
	// re-grants of the issuer role to a deactivated identity.
	ErrIssuerDeactivated = errors.New("issuer is deactivated")

	// ErrStatusUnchanged rejects status updates that restate the current status.
	ErrStatusUnchanged = errors.New("issuer status unchanged")

	// ErrIssuerNotActive rejects minting by callers whose issuer record is missing or not active.
	ErrIssuerNotActive = errors.New("issuer is not active")

	// ErrCredentialNotFound rejects lookups of credential ids that were never minted.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrTransferForbidden rejects every ownership change of a minted credential.
	ErrTransferForbidden = errors.New("credential transfer forbidden")
)
