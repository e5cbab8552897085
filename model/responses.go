package model

// PaginatedIssuerResponse is the structure returned by paginated issuer queries.
type PaginatedIssuerResponse struct {
	Issuers      []*IssuerInfo `json:"issuers"`
	NextBookmark string        `json:"nextBookmark"`
	FetchedCount int32         `json:"fetchedCount"`
}

// PaginatedCredentialResponse is the structure returned by paginated credential queries.
type PaginatedCredentialResponse struct {
	Credentials  []*CredentialRecord `json:"credentials"`
	NextBookmark string              `json:"nextBookmark"`
	FetchedCount int32               `json:"fetchedCount"`
}

// PaginatedAuditEventResponse is the structure returned by the audit trail query.
type PaginatedAuditEventResponse struct {
	Events       []AuditEvent `json:"events"`
	NextBookmark string       `json:"nextBookmark"`
	FetchedCount int32        `json:"fetchedCount"`
}
