package contract

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Phig0r/sbt-verifiable-credentials/model"
)

// =============================================================================
// Issuer Lifecycle Suite
// =============================================================================
// Covers admission, the status state machine with its terminal Deactivated
// state, and the role revocation bundled into deactivation.

type IssuerLifecycleSuite struct {
	registrySuiteBase
}

func TestIssuerLifecycleSuite(t *testing.T) {
	suite.Run(t, new(IssuerLifecycleSuite))
}

func (s *IssuerLifecycleSuite) TestAddIssuer() {
	s.bootstrapRegistry()

	s.Run("admin admits an issuer", func() {
		s.Require().NoError(s.contract.AddIssuer(s.ctxFor(adminID), issuerID, "Example University", "https://issuer.example.edu"))

		name, entries := s.lastEvent()
		s.Equal("IssuerAdded", name)
		s.Require().Len(entries, 1)
		s.Equal(adminID, entries[0].Actor)
		s.Equal(issuerID, entries[0].Identity)

		rec, err := s.contract.GetIssuer(s.ctxFor("anyone"), issuerID)
		s.Require().NoError(err)
		s.True(rec.Exists())
		s.Equal(model.IssuerStatusActive, rec.Status)
		s.Equal("Example University", rec.Name)
		s.Equal("https://issuer.example.edu", rec.Endpoint)
		s.Equal(adminID, rec.RegisteredBy)
		s.Equal(rec.RegisteredAt, rec.LastUpdatedAt)

		s.True(s.hasRole(issuerID, model.RoleIssuer))
	})

	s.Run("second admission for the same identity rejected", func() {
		err := s.contract.AddIssuer(s.ctxFor(adminID), issuerID, "Example University Again", "")
		s.ErrorIs(err, ErrIssuerAlreadyExists)
	})

	s.Run("root admin without admin role cannot admit", func() {
		err := s.contract.AddIssuer(s.ctxFor(rootAdminID), issuer2ID, "Another School", "")
		s.ErrorIs(err, ErrUnauthorized)
	})

	s.Run("issuer cannot admit issuers", func() {
		err := s.contract.AddIssuer(s.ctxFor(issuerID), issuer2ID, "Another School", "")
		s.ErrorIs(err, ErrUnauthorized)
	})

	s.Run("identity and name are required, endpoint is not", func() {
		err := s.contract.AddIssuer(s.ctxFor(adminID), "  ", "No Identity", "")
		s.Require().Error(err)
		s.Contains(err.Error(), "cannot be empty")

		err = s.contract.AddIssuer(s.ctxFor(adminID), issuer2ID, "", "")
		s.Require().Error(err)
		s.Contains(err.Error(), "cannot be empty")

		s.NoError(s.contract.AddIssuer(s.ctxFor(adminID), issuer2ID, "Endpointless School", ""))
	})

	s.Run("orphaned role grant does not block admission", func() {
		s.Require().NoError(s.contract.GrantRole(s.ctxFor(adminID), "issuer", "issuer-3"))
		s.NoError(s.contract.AddIssuer(s.ctxFor(adminID), "issuer-3", "Pre-Granted School", ""))
	})
}

func (s *IssuerLifecycleSuite) TestUpdateIssuerStatus_Transitions() {
	s.bootstrapRegistry()
	s.addActiveIssuer(issuerID, "Example University")

	s.Run("active to suspended", func() {
		s.Require().NoError(s.contract.UpdateIssuerStatus(s.ctxFor(adminID), issuerID, "SUSPENDED"))

		name, entries := s.lastEvent()
		s.Equal("IssuerStatusUpdated", name)
		s.Require().Len(entries, 1)
		s.Equal(model.IssuerStatusActive, entries[0].OldStatus)
		s.Equal(model.IssuerStatusSuspended, entries[0].NewStatus)

		rec, err := s.contract.GetIssuer(s.ctxFor("anyone"), issuerID)
		s.Require().NoError(err)
		s.Equal(model.IssuerStatusSuspended, rec.Status)
		s.True(rec.LastUpdatedAt.After(rec.RegisteredAt))
	})

	s.Run("suspension keeps the issuer role", func() {
		s.True(s.hasRole(issuerID, model.RoleIssuer))
	})

	s.Run("suspended back to active", func() {
		s.NoError(s.contract.UpdateIssuerStatus(s.ctxFor(adminID), issuerID, "ACTIVE"))
	})

	s.Run("repeating the current status rejected, active included", func() {
		err := s.contract.UpdateIssuerStatus(s.ctxFor(adminID), issuerID, "ACTIVE")
		s.ErrorIs(err, ErrStatusUnchanged)
	})

	s.Run("status name is normalized", func() {
		s.NoError(s.contract.UpdateIssuerStatus(s.ctxFor(adminID), issuerID, " suspended "))
	})

	s.Run("unknown status rejected", func() {
		err := s.contract.UpdateIssuerStatus(s.ctxFor(adminID), issuerID, "RETIRED")
		s.Require().Error(err)
		s.Contains(err.Error(), "invalid status")
	})

	s.Run("unknown identity rejected", func() {
		err := s.contract.UpdateIssuerStatus(s.ctxFor(adminID), "nobody", "SUSPENDED")
		s.ErrorIs(err, ErrIssuerNotFound)
	})

	s.Run("non-admin caller rejected", func() {
		err := s.contract.UpdateIssuerStatus(s.ctxFor(issuerID), issuerID, "ACTIVE")
		s.ErrorIs(err, ErrUnauthorized)
	})
}

func (s *IssuerLifecycleSuite) TestDeactivation_IsTerminalAndStripsRole() {
	s.bootstrapRegistry()
	s.addActiveIssuer(issuerID, "Example University")

	s.Run("deactivation updates status and revokes the role together", func() {
		s.Require().NoError(s.contract.UpdateIssuerStatus(s.ctxFor(adminID), issuerID, "DEACTIVATED"))

		name, entries := s.lastEvent()
		s.Equal("IssuerStatusUpdated", name)
		s.Require().Len(entries, 2)
		s.Equal(model.EventIssuerStatusUpdated, entries[0].Type)
		s.Equal(model.IssuerStatusDeactivated, entries[0].NewStatus)
		s.Equal(model.EventIssuerRoleRevoked, entries[1].Type)
		s.Equal(issuerID, entries[1].Identity)

		s.False(s.hasRole(issuerID, model.RoleIssuer))
	})

	s.Run("no transition leaves the terminal state", func() {
		for _, status := range []string{"ACTIVE", "SUSPENDED", "DEACTIVATED"} {
			err := s.contract.UpdateIssuerStatus(s.ctxFor(adminID), issuerID, status)
			s.ErrorIs(err, ErrIssuerDeactivated, "transition to %s must stay rejected", status)
		}
	})

	s.Run("re-deactivation reports terminal state, not a redundant transition", func() {
		err := s.contract.UpdateIssuerStatus(s.ctxFor(adminID), issuerID, "DEACTIVATED")
		s.ErrorIs(err, ErrIssuerDeactivated)
		s.NotErrorIs(err, ErrStatusUnchanged)
	})

	s.Run("the issuer role cannot be re-granted", func() {
		err := s.contract.GrantRole(s.ctxFor(adminID), "issuer", issuerID)
		s.ErrorIs(err, ErrIssuerDeactivated)
		s.False(s.hasRole(issuerID, model.RoleIssuer))
	})

	s.Run("re-admission is blocked by the surviving record", func() {
		err := s.contract.AddIssuer(s.ctxFor(adminID), issuerID, "Example University Reborn", "")
		s.ErrorIs(err, ErrIssuerAlreadyExists)
	})

	s.Run("other roles are untouched by deactivation", func() {
		s.Require().NoError(s.contract.GrantRole(s.ctxFor(rootAdminID), "admin", issuerID))
		s.True(s.hasRole(issuerID, model.RoleAdmin))
	})
}

func (s *IssuerLifecycleSuite) TestGetIssuer_AbsentIdentity() {
	s.bootstrapRegistry()

	rec, err := s.contract.GetIssuer(s.ctxFor("anyone"), "never-added")
	s.Require().NoError(err)
	s.False(rec.Exists())
	s.Empty(rec.Name)
	s.Empty(string(rec.Status))
}

func (s *IssuerLifecycleSuite) TestGetIssuers_Pagination() {
	s.bootstrapRegistry()
	s.addActiveIssuer("issuer-a", "School A")
	s.addActiveIssuer("issuer-b", "School B")
	s.addActiveIssuer("issuer-c", "School C")

	page1, err := s.contract.GetIssuers(s.ctxFor("anyone"), "2", "")
	s.Require().NoError(err)
	s.Equal(int32(2), page1.FetchedCount)
	s.Require().Len(page1.Issuers, 2)
	s.NotEmpty(page1.NextBookmark)

	page2, err := s.contract.GetIssuers(s.ctxFor("anyone"), "2", page1.NextBookmark)
	s.Require().NoError(err)
	s.Equal(int32(1), page2.FetchedCount)
	s.Require().Len(page2.Issuers, 1)
	s.Empty(page2.NextBookmark)

	seen := map[string]bool{}
	for _, rec := range append(page1.Issuers, page2.Issuers...) {
		seen[rec.Identity] = true
	}
	s.Equal(map[string]bool{"issuer-a": true, "issuer-b": true, "issuer-c": true}, seen)
}
