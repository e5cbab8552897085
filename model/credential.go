package model

import "time"

// CredentialRecord stores one issued soulbound credential. Records are
// immutable once written: the recipient is bound at mint and no operation
// may rebind it.
type CredentialRecord struct {
	ObjectType    string    `json:"objectType"`    // Set to the composite key object type (CredentialRecord)
	ID            uint64    `json:"id"`            // Ledger-assigned sequential identifier, starting at 0
	RecipientName string    `json:"recipientName"` // Display name of the credential holder
	Recipient     string    `json:"recipient"`     // Identity that owns the credential
	Issuer        string    `json:"issuer"`        // Identity of the issuer that minted it
	Title         string    `json:"title"`         // Credential title or qualification name
	IssuedAt      time.Time `json:"issuedAt"`      // Timestamp of issuance
}
