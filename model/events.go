package model

import "time"

// AuditEventType names the audit events recorded by registry operations.
type AuditEventType string

const (
	EventIssuerAdded         AuditEventType = "IssuerAdded"         // New issuer admitted to the registry
	EventIssuerStatusUpdated AuditEventType = "IssuerStatusUpdated" // Issuer lifecycle status changed
	EventIssuerRoleRevoked   AuditEventType = "IssuerRoleRevoked"   // Issuer role stripped during deactivation
	EventCredentialIssued    AuditEventType = "CredentialIssued"    // Credential minted
	EventRoleGranted         AuditEventType = "RoleGranted"         // Role membership granted
	EventRoleRevoked         AuditEventType = "RoleRevoked"         // Role membership revoked
)

// AuditEvent is one entry of the append-only audit trail. Every mutating
// operation records at least one. Type, TxID, Timestamp and Actor form the
// envelope; the remaining fields are populated per event type.
type AuditEvent struct {
	Type         AuditEventType `json:"type"`
	TxID         string         `json:"txId"`
	Timestamp    time.Time      `json:"timestamp"`
	Actor        string         `json:"actor"`                  // Identity that performed the operation
	ActorMSP     string         `json:"actorMsp,omitempty"`     // MSP of the actor, when resolvable
	Identity     string         `json:"identity,omitempty"`     // Target identity (issuer or role holder)
	Role         Role           `json:"role,omitempty"`         // RoleGranted / RoleRevoked
	OldStatus    IssuerStatus   `json:"oldStatus,omitempty"`    // IssuerStatusUpdated
	NewStatus    IssuerStatus   `json:"newStatus,omitempty"`    // IssuerStatusUpdated
	CredentialID *uint64        `json:"credentialId,omitempty"` // CredentialIssued; id 0 is valid
	Issuer       string         `json:"issuer,omitempty"`       // CredentialIssued
	Recipient    string         `json:"recipient,omitempty"`    // CredentialIssued
}
