package session

import (
	"crypto/subtle"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default mock account accepted when no allow-list file is configured.
const (
	DefaultEmail    = "test@example.com"
	DefaultPassword = "password123"
)

// Credentials are stored in plaintext; this is a mock sign-in.
type Credentials struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// CredentialVerifier decides whether an email/password pair may sign in.
type CredentialVerifier interface {
	Verify(email, password string) bool
}

// StaticVerifier checks against a fixed allow-list.
type StaticVerifier struct {
	accounts map[string]string
}

func NewStaticVerifier(accounts ...Credentials) *StaticVerifier {
	v := &StaticVerifier{accounts: make(map[string]string, len(accounts))}
	for _, a := range accounts {
		v.accounts[a.Email] = a.Password
	}
	return v
}

func DefaultVerifier() *StaticVerifier {
	return NewStaticVerifier(Credentials{Email: DefaultEmail, Password: DefaultPassword})
}

func (v *StaticVerifier) Verify(email, password string) bool {
	want, ok := v.accounts[email]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(password)) == 1
}

// Len reports how many accounts are allowed.
func (v *StaticVerifier) Len() int {
	return len(v.accounts)
}

type allowList struct {
	Accounts []Credentials `yaml:"accounts"`
}

// LoadAllowList reads a YAML file of the form
//
//	accounts:
//	  - email: someone@example.com
//	    password: secret
func LoadAllowList(path string) (*StaticVerifier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read allow-list: %w", err)
	}
	var list allowList
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parse allow-list: %w", err)
	}

	var accounts []Credentials
	for i, a := range list.Accounts {
		a.Email = strings.TrimSpace(a.Email)
		if a.Email == "" || a.Password == "" {
			return nil, fmt.Errorf("allow-list entry %d: email and password are required", i)
		}
		accounts = append(accounts, a)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("allow-list %s has no accounts", path)
	}
	return NewStaticVerifier(accounts...), nil
}
