// Package auth resolves e-conomic API credentials into the header set
// attached to every outgoing request.
//
// A credential pair resolves from three sources in precedence order:
// explicit values, the ECONOMIC_* environment variables, and a credentials
// JSON file with a top-level economic_api section. The literal value "demo"
// is a valid pair for both fields and grants access to the vendor's public
// sandbox.
package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Environment variables consulted when no explicit tokens are given.
const (
	EnvAppSecretToken      = "ECONOMIC_APP_SECRET_TOKEN"
	EnvAgreementGrantToken = "ECONOMIC_AGREEMENT_GRANT_TOKEN"
)

// DemoToken is the sandbox sentinel accepted by the API for both fields.
const DemoToken = "demo"

// DefaultAuthDir is the directory searched for credential files when a bare
// filename is given.
const DefaultAuthDir = "authentication_schemas"

// Errors returned during credential resolution. ErrCredentialsNotFound and
// ErrMalformedCredentials signal "no credentials available from this
// source" and leave the caller free to try another source or demo mode;
// ErrMissingCredentials is fatal to the run.
var (
	ErrMissingCredentials   = errors.New("API tokens are required: provide them as arguments, set " + EnvAppSecretToken + " and " + EnvAgreementGrantToken + ", or use a credentials file")
	ErrCredentialsNotFound  = errors.New("credentials file not found")
	ErrMalformedCredentials = errors.New("credentials file is not valid JSON")
)

// companyPattern matches credential file base names of the form
// <company>_credentials.json.
var companyPattern = regexp.MustCompile(`^(.+)_credentials\.json$`)

// Credentials is an immutable app-secret / agreement-grant token pair.
type Credentials struct {
	appSecretToken      string
	agreementGrantToken string
}

// New creates credentials from the given token pair. Both fields must be
// non-empty.
func New(appSecretToken, agreementGrantToken string) (*Credentials, error) {
	if appSecretToken == "" || agreementGrantToken == "" {
		return nil, ErrMissingCredentials
	}

	return &Credentials{
		appSecretToken:      appSecretToken,
		agreementGrantToken: agreementGrantToken,
	}, nil
}

// Demo returns the sandbox credential pair.
func Demo() *Credentials {
	return &Credentials{
		appSecretToken:      DemoToken,
		agreementGrantToken: DemoToken,
	}
}

// Resolve builds credentials with the precedence explicit > environment >
// file, applied per field. credsFile may be empty; it is only read when a
// field is still unresolved, and its not-found/malformed errors propagate
// so the caller can fall back to another source.
func Resolve(appSecretToken, agreementGrantToken, credsFile string) (*Credentials, error) {
	if appSecretToken == "" {
		appSecretToken = os.Getenv(EnvAppSecretToken)
	}
	if agreementGrantToken == "" {
		agreementGrantToken = os.Getenv(EnvAgreementGrantToken)
	}

	if (appSecretToken == "" || agreementGrantToken == "") && credsFile != "" {
		fileApp, fileGrant, err := readCredentialsFile(credsFile)
		if err != nil {
			return nil, err
		}
		if appSecretToken == "" {
			appSecretToken = fileApp
		}
		if agreementGrantToken == "" {
			agreementGrantToken = fileGrant
		}
	}

	return New(appSecretToken, agreementGrantToken)
}

// LoadFile creates credentials from a credentials JSON file alone.
func LoadFile(path string) (*Credentials, error) {
	appSecretToken, agreementGrantToken, err := readCredentialsFile(path)
	if err != nil {
		return nil, err
	}

	return New(appSecretToken, agreementGrantToken)
}

// readCredentialsFile extracts the token pair from the economic_api
// section of a credentials JSON file.
func readCredentialsFile(path string) (appSecretToken, agreementGrantToken string, err error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", "", fmt.Errorf("%w: %s", ErrCredentialsNotFound, path)
		}
		var parseErr viper.ConfigParseError
		if errors.As(err, &parseErr) {
			return "", "", fmt.Errorf("%w: %s", ErrMalformedCredentials, path)
		}
		return "", "", fmt.Errorf("read credentials file %s: %w", path, err)
	}

	return v.GetString("economic_api.app_secret_token"),
		v.GetString("economic_api.agreement_grant_token"),
		nil
}

// IsDemo reports whether both tokens are the sandbox sentinel.
func (c *Credentials) IsDemo() bool {
	return c.appSecretToken == DemoToken && c.agreementGrantToken == DemoToken
}

// Headers returns the three request headers the API requires. A fresh map
// is returned on every call so callers cannot mutate the credentials.
func (c *Credentials) Headers() map[string]string {
	return map[string]string{
		"X-AppSecretToken":      c.appSecretToken,
		"X-AgreementGrantToken": c.agreementGrantToken,
		"Content-Type":          "application/json",
	}
}

// ResolvePath locates a credentials file. A path that exists is returned
// as-is; otherwise the auth directory is tried; otherwise the original
// name comes back unchanged and the subsequent load reports not-found.
func ResolvePath(name, authDir string) string {
	if isFile(name) {
		return name
	}

	inAuthDir := filepath.Join(authDir, name)
	if isFile(inAuthDir) {
		return inAuthDir
	}

	return name
}

// CompanyName derives the company identifier from a credentials file name
// of the form <company>_credentials.json. Returns "" when the name does
// not match the pattern.
func CompanyName(credsFile string) string {
	m := companyPattern.FindStringSubmatch(filepath.Base(credsFile))
	if m == nil {
		return ""
	}
	return m[1]
}

// ListCredentialFiles returns the JSON file names in the auth directory,
// sorted. A missing directory yields an empty list, not an error.
func ListCredentialFiles(authDir string) ([]string, error) {
	entries, err := os.ReadDir(authDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list credentials in %s: %w", authDir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	return files, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
