package application

import (
	"context"
	"fmt"

	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

// CredentialVerifier checks an email/password pair on the login path.
// Unknown email and wrong password both surface as domain.ErrInvalidCredentials.
type CredentialVerifier struct {
	accounts ports.AccountRepository
	hasher   ports.PasswordHasher
	// decoyHash is compared when the email is unknown so both branches pay one bcrypt compare.
	decoyHash string
}

func NewCredentialVerifier(accounts ports.AccountRepository, hasher ports.PasswordHasher) (*CredentialVerifier, error) {
	decoy, err := hasher.Hash("decoy-password-for-unknown-accounts")
	if err != nil {
		return nil, err
	}
	return &CredentialVerifier{accounts: accounts, hasher: hasher, decoyHash: decoy}, nil
}

func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (domain.Account, error) {
	account, err := v.accounts.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			_ = v.hasher.Matches(v.decoyHash, password)
			return domain.Account{}, domain.ErrInvalidCredentials
		}
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}
	if !v.hasher.Matches(account.PasswordHash, password) {
		return domain.Account{}, domain.ErrInvalidCredentials
	}
	return account, nil
}
