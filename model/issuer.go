package model

import (
	"strings"
	"time"
)

// IssuerStatus defines the lifecycle states of a registered issuer.
type IssuerStatus string

const (
	IssuerStatusActive      IssuerStatus = "ACTIVE"      // Issuer may mint credentials
	IssuerStatusSuspended   IssuerStatus = "SUSPENDED"   // Minting disabled; the status may still change
	IssuerStatusDeactivated IssuerStatus = "DEACTIVATED" // Terminal; no further transitions permitted
)

// IssuerStatuses lists every lifecycle status the registry recognizes.
var IssuerStatuses = []IssuerStatus{IssuerStatusActive, IssuerStatusSuspended, IssuerStatusDeactivated}

// ParseIssuerStatus normalizes a status name supplied by a client.
func ParseIssuerStatus(s string) (IssuerStatus, bool) {
	st := IssuerStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range IssuerStatuses {
		if st == known {
			return known, true
		}
	}
	return "", false
}

// IsTerminal reports whether the status permits no further transitions.
func (st IssuerStatus) IsTerminal() bool {
	return st == IssuerStatusDeactivated
}

// IssuerInfo stores the registration record of a credential issuer.
type IssuerInfo struct {
	ObjectType    string       `json:"objectType"`    // Set to the composite key object type (IssuerInfo)
	Identity      string       `json:"identity"`      // Opaque identity reference of the issuer
	Name          string       `json:"name"`          // Display name of the issuing organization
	Endpoint      string       `json:"endpoint"`      // Service endpoint reference, e.g. a URL or DID
	Status        IssuerStatus `json:"status"`        // Current lifecycle status
	RegisteredBy  string       `json:"registeredBy"`  // Identity of the admin that registered this issuer
	RegisteredAt  time.Time    `json:"registeredAt"`  // Timestamp when the issuer was registered
	LastUpdatedAt time.Time    `json:"lastUpdatedAt"` // Timestamp of the last status change
}

// Exists reports whether the record represents a registered issuer.
// Registration always sets RegisteredAt, so a zero timestamp marks the
// default record returned for identities that were never added. Key
// presence alone is never consulted.
func (i *IssuerInfo) Exists() bool {
	return !i.RegisteredAt.IsZero()
}
