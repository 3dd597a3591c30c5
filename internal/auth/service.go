package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/christopher639/cbc-scholar-hub-sub002/internal/audit"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/provider"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/session"
)

// ProviderAuthenticator is the sign-in slice of the primary identity
// provider.
type ProviderAuthenticator interface {
	SignIn(ctx context.Context, email, password string) (model.PrimaryAccount, error)
}

// Service is the login aggregator. It tries each role's resolve and
// validate pair in the resolver's priority order and stops at the
// first success.
type Service struct {
	resolver *Resolver
	provider ProviderAuthenticator
	issuer   *session.Issuer
	audit    audit.Recorder
}

// NewService creates the login aggregator.
func NewService(resolver *Resolver, providerAuth ProviderAuthenticator, issuer *session.Issuer, recorder audit.Recorder) *Service {
	return &Service{
		resolver: resolver,
		provider: providerAuth,
		issuer:   issuer,
		audit:    recorder,
	}
}

// LoginResult is a successful login. Session is set for self-issued
// roles; provider-delegated logins carry no session here because the
// provider owns theirs.
type LoginResult struct {
	Identity model.Identity
	Session  *model.Session
}

// loginAttempt pairs a resolve step with the matching validation rule.
type loginAttempt struct {
	resolve  resolveStep
	validate validateFunc
}

// Login authenticates a username/secret pair. Every failure short of
// an upstream outage collapses into ErrInvalidCredentials so callers
// cannot probe which identity classes contain a username.
func (s *Service) Login(ctx context.Context, username, secret string) (LoginResult, error) {
	attempts := []loginAttempt{
		{s.resolver.learnerByAdmission, validateLearnerBirthCert},
		{s.resolver.learnerByBirthCert, validateLearnerAdmission},
		{s.resolver.teacherByTSC, validateTeacherNationalID},
		{s.resolver.teacherByEmployeeNo, validateTeacherNationalID},
		{s.resolver.staffByEmployeeNo, validateStaffNationalID},
	}

	for _, attempt := range attempts {
		identity, err := attempt.resolve(ctx, username)
		if err != nil {
			if errors.Is(err, ErrIdentityNotFound) {
				continue
			}
			return LoginResult{}, err
		}
		if err := attempt.validate(identity, secret); err != nil {
			// A matched username with a wrong secret still falls
			// through; every stage is just another candidate.
			continue
		}
		return s.finishSelfIssued(ctx, identity)
	}

	// Last candidate: delegate to the primary identity provider.
	account, err := s.provider.SignIn(ctx, username, secret)
	if err != nil {
		if errors.Is(err, provider.ErrUnavailable) {
			return LoginResult{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		log.Printf("Login failed for %s", maskUsername(username))
		return LoginResult{}, ErrInvalidCredentials
	}

	identity := model.Identity{Role: account.Role, Primary: &account}
	if err := s.audit.RecordLogin(ctx, identity.Role, identity.DisplayName()); err != nil {
		return LoginResult{}, fmt.Errorf("record login: %w", err)
	}
	return LoginResult{Identity: identity}, nil
}

func (s *Service) finishSelfIssued(ctx context.Context, identity model.Identity) (LoginResult, error) {
	sess, err := s.issuer.Issue(ctx, identity)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue session: %w", err)
	}
	if err := s.audit.RecordLogin(ctx, identity.Role, identity.DisplayName()); err != nil {
		return LoginResult{}, fmt.Errorf("record login: %w", err)
	}
	return LoginResult{Identity: identity, Session: &sess}, nil
}

// maskUsername keeps the first two characters for log correlation.
func maskUsername(username string) string {
	if len(username) <= 2 {
		return "**"
	}
	return username[:2] + "****"
}
