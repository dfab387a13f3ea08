package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/relvanta/relvanta-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testProject = "relvanta-test"
	testKID     = "key-1"
)

func jwksServer(t *testing.T, key *rsa.PublicKey) *httptest.Server {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": testKID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims FirebaseClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKID
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims() FirebaseClaims {
	return FirebaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    firebaseIssuerPrefix + testProject,
			Audience:  jwt.ClaimStrings{testProject},
			Subject:   "fb-uid-1",
			IssuedAt:  jwt.NewNumericDate(testNow.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
		Email:    "ada@example.com",
		Name:     "Ada",
		Picture:  "https://img/ada.png",
		AuthTime: testNow.Add(-time.Minute).Unix(),
	}
}

func newTestVerifier(t *testing.T, key *rsa.PrivateKey) *FirebaseVerifier {
	t.Helper()
	srv := jwksServer(t, &key.PublicKey)
	v := NewFirebaseVerifier(&config.Config{FirebaseProjectID: testProject, FirebaseJWKSURL: srv.URL})
	v.now = func() time.Time { return testNow }
	t.Cleanup(v.Close)
	return v
}

func TestFirebaseVerifyValidToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := newTestVerifier(t, key)

	identity, err := v.Verify(context.Background(), signToken(t, key, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, &VerifiedIdentity{
		Subject: "fb-uid-1",
		Email:   "ada@example.com",
		Name:    "Ada",
		Picture: "https://img/ada.png",
	}, identity)
}

func TestFirebaseVerifyRejects(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := newTestVerifier(t, key)

	tests := []struct {
		name  string
		token func() string
	}{
		{"wrong audience", func() string {
			c := validClaims()
			c.Audience = jwt.ClaimStrings{"another-project"}
			return signToken(t, key, c)
		}},
		{"wrong issuer", func() string {
			c := validClaims()
			c.Issuer = "https://accounts.example.com"
			return signToken(t, key, c)
		}},
		{"expired", func() string {
			c := validClaims()
			c.ExpiresAt = jwt.NewNumericDate(testNow.Add(-time.Second))
			return signToken(t, key, c)
		}},
		{"no expiry", func() string {
			c := validClaims()
			c.ExpiresAt = nil
			return signToken(t, key, c)
		}},
		{"auth time in future", func() string {
			c := validClaims()
			c.AuthTime = testNow.Add(time.Hour).Unix()
			return signToken(t, key, c)
		}},
		{"foreign signature", func() string {
			return signToken(t, other, validClaims())
		}},
		{"hs256", func() string {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
			token.Header["kid"] = testKID
			signed, err := token.SignedString([]byte("secret"))
			require.NoError(t, err)
			return signed
		}},
		{"garbage", func() string { return "not-a-jwt" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := v.Verify(context.Background(), tt.token())
			assert.Error(t, err)
			assert.Nil(t, identity)
		})
	}
}

func TestFirebaseVerifierDisabledWithoutCredentials(t *testing.T) {
	v := NewFirebaseVerifier(&config.Config{})
	assert.False(t, v.Init())

	_, err := v.Verify(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrVerifierDisabled)
}

func TestFirebaseVerifierInitRunsOnce(t *testing.T) {
	cfg := &config.Config{}
	v := NewFirebaseVerifier(cfg)
	assert.False(t, v.Init())

	cfg.FirebaseProjectID = testProject
	assert.False(t, v.Init(), "configuration is read only on the first call")
}

func TestLoadFirebaseProject(t *testing.T) {
	rawJSON := `{"type":"service_account","project_id":"from-json"}`
	dir := t.TempDir()
	path := filepath.Join(dir, "firebase.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"project_id":"from-file"}`), 0o600))

	tests := []struct {
		name    string
		cfg     config.Config
		want    string
		wantErr bool
	}{
		{"explicit project", config.Config{FirebaseProjectID: "explicit", FirebaseCredentialsPath: path}, "explicit", false},
		{"base64 json", config.Config{FirebaseCredentialsJSON: base64.StdEncoding.EncodeToString([]byte(rawJSON))}, "from-json", false},
		{"raw json", config.Config{FirebaseCredentialsJSON: rawJSON}, "from-json", false},
		{"file path", config.Config{FirebaseCredentialsPath: path}, "from-file", false},
		{"missing file", config.Config{FirebaseCredentialsPath: filepath.Join(dir, "absent.json")}, "", false},
		{"nothing configured", config.Config{}, "", false},
		{"bad base64", config.Config{FirebaseCredentialsJSON: "%%%"}, "", true},
		{"no project id", config.Config{FirebaseCredentialsJSON: `{"type":"service_account"}`}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := loadFirebaseProject(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
