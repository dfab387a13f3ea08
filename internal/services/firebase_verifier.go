package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/relvanta/relvanta-api/internal/config"
	"go.opentelemetry.io/otel/attribute"
)

const firebaseIssuerPrefix = "https://securetoken.google.com/"

var ErrVerifierDisabled = errors.New("identity verification is not configured")

// VerifiedIdentity is what the identity provider vouches for.
type VerifiedIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// IdentityVerifier validates a provider-issued credential.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*VerifiedIdentity, error)
}

type FirebaseClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	AuthTime int64  `json:"auth_time"`
}

type serviceAccount struct {
	ProjectID string `json:"project_id"`
}

// FirebaseVerifier checks Firebase ID tokens: RS256 signatures against
// Google's published key set, issuer and audience bound to the project.
type FirebaseVerifier struct {
	cfg        *config.Config
	httpClient *http.Client
	now        func() time.Time

	initOnce  sync.Once
	projectID string

	mu   sync.Mutex
	jwks *keyfunc.JWKS
}

func NewFirebaseVerifier(cfg *config.Config) *FirebaseVerifier {
	return &FirebaseVerifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// Init resolves the Firebase project from configuration. It runs at most once
// per verifier no matter how often it is called and reports whether
// verification is enabled.
func (v *FirebaseVerifier) Init() bool {
	v.initOnce.Do(func() {
		projectID, source, err := loadFirebaseProject(v.cfg)
		switch {
		case err != nil:
			slog.Warn("firebase credentials unusable, authentication disabled", "source", source, "error", err)
		case projectID == "":
			slog.Warn("firebase credentials not found, authentication disabled",
				"hint", "set FIREBASE_CREDENTIALS_JSON, FIREBASE_CREDENTIALS_PATH or FIREBASE_PROJECT_ID")
		default:
			v.projectID = projectID
			slog.Info("firebase verifier initialized", "project_id", projectID, "source", source)
		}
	})
	return v.projectID != ""
}

func loadFirebaseProject(cfg *config.Config) (string, string, error) {
	if cfg.FirebaseProjectID != "" {
		return cfg.FirebaseProjectID, "FIREBASE_PROJECT_ID", nil
	}

	if raw := strings.TrimSpace(cfg.FirebaseCredentialsJSON); raw != "" {
		data := []byte(raw)
		if !strings.HasPrefix(raw, "{") {
			decoded, err := base64.StdEncoding.DecodeString(raw)
			if err != nil {
				return "", "FIREBASE_CREDENTIALS_JSON", fmt.Errorf("failed to decode credentials: %w", err)
			}
			data = decoded
		}
		projectID, err := parseServiceAccount(data)
		return projectID, "FIREBASE_CREDENTIALS_JSON", err
	}

	if path := cfg.FirebaseCredentialsPath; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", "FIREBASE_CREDENTIALS_PATH", nil
			}
			return "", "FIREBASE_CREDENTIALS_PATH", fmt.Errorf("failed to read credentials: %w", err)
		}
		projectID, err := parseServiceAccount(data)
		return projectID, "FIREBASE_CREDENTIALS_PATH", err
	}

	return "", "", nil
}

func parseServiceAccount(data []byte) (string, error) {
	var sa serviceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return "", fmt.Errorf("failed to parse credentials: %w", err)
	}
	if sa.ProjectID == "" {
		return "", errors.New("credentials have no project_id")
	}
	return sa.ProjectID, nil
}

// keys returns the remote key set, fetching it on first use. A failed fetch is
// retried on the next call.
func (v *FirebaseVerifier) keys() (*keyfunc.JWKS, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.jwks != nil {
		return v.jwks, nil
	}

	jwks, err := keyfunc.Get(v.cfg.FirebaseJWKSURL, keyfunc.Options{
		Client:            v.httpClient,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			slog.Warn("firebase key refresh failed", "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	v.jwks = jwks
	return jwks, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*VerifiedIdentity, error) {
	_, span := tracer().Start(ctx, "firebase.Verify")
	defer span.End()

	if !v.Init() {
		recordSpanError(span, ErrVerifierDisabled)
		return nil, ErrVerifierDisabled
	}
	span.SetAttributes(attribute.String("firebase.project_id", v.projectID))

	jwks, err := v.keys()
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	var claims FirebaseClaims
	_, err = jwt.ParseWithClaims(idToken, &claims, jwks.Keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(firebaseIssuerPrefix+v.projectID),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	if claims.AuthTime > v.now().Unix() {
		err := errors.New("auth_time is in the future")
		recordSpanError(span, err)
		return nil, err
	}

	return &VerifiedIdentity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

// Close stops the background key refresh.
func (v *FirebaseVerifier) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
