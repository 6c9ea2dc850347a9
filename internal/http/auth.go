package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-nestsync/domain"
	"github.com/goliatone/go-nestsync/families"
	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/internal/permissions"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	"github.com/goliatone/go-nestsync/users"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// defaultPolicyVersion stamps the consent ledger rows written during first
// sight provisioning when the token carries no consent_version claim.
const defaultPolicyVersion = "2025-01"

// devActorHeader names the unsigned actor header dev mode accepts in place of
// a bearer token.
const devActorHeader = "X-Actor-ID"

var (
	ErrAuthRequired   = errors.New("http: authorization required")
	ErrTokenInvalid   = errors.New("http: bearer token is invalid")
	ErrSubjectInvalid = errors.New("http: token subject is not a uuid")
	ErrActorUnknown   = errors.New("http: actor does not resolve to an account")
	ErrActorSuspended = errors.New("http: account is suspended")
)

// accessTokenClaims mirrors the claims the hosted identity provider mints.
// user_metadata carries the profile and consent fields captured on the signup
// screen.
type accessTokenClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// AuthenticatorOptions configures bearer-token verification and the services
// the middleware resolves actors against.
type AuthenticatorOptions struct {
	// Secret is the HS256 shared secret the identity provider signs with.
	Secret   string
	Issuer   string
	Audience string
	// DevMode accepts an unsigned X-Actor-ID header when no Authorization
	// header is present so local clients can skip the identity provider.
	DevMode bool
	// PolicyVersion stamps consents written during first sight provisioning.
	PolicyVersion string
	Users         users.Service
	Families      families.Service
	Logger        interfaces.Logger
	Clock         func() time.Time
}

// Authenticator verifies bearer tokens, resolves or provisions the local
// account for the token subject, and installs the actor plus a family-scoped
// permission checker on the request context.
type Authenticator struct {
	secret        []byte
	issuer        string
	audience      string
	devMode       bool
	policyVersion string
	users         users.Service
	families      families.Service
	logger        interfaces.Logger
	now           func() time.Time
}

// NewAuthenticator constructs an Authenticator from the supplied options.
func NewAuthenticator(opts AuthenticatorOptions) *Authenticator {
	auth := &Authenticator{
		secret:        []byte(opts.Secret),
		issuer:        strings.TrimSpace(opts.Issuer),
		audience:      strings.TrimSpace(opts.Audience),
		devMode:       opts.DevMode,
		policyVersion: strings.TrimSpace(opts.PolicyVersion),
		users:         opts.Users,
		families:      opts.Families,
		logger:        opts.Logger,
		now:           opts.Clock,
	}
	if auth.policyVersion == "" {
		auth.policyVersion = defaultPolicyVersion
	}
	if auth.logger == nil {
		auth.logger = logging.NoOp()
	}
	return auth
}

// Authenticate resolves the acting user for the request and returns a context
// carrying the actor and their permission set.
func (a *Authenticator) Authenticate(r *http.Request) (context.Context, error) {
	if a == nil || a.users == nil || r == nil {
		return nil, ErrAuthRequired
	}
	ctx := r.Context()

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		if a.devMode {
			return a.authenticateDev(ctx, r)
		}
		return nil, ErrAuthRequired
	}

	token, ok := bearerToken(header)
	if !ok {
		return nil, ErrTokenInvalid
	}
	claims, err := a.verify(token)
	if err != nil {
		return nil, err
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return nil, ErrSubjectInvalid
	}
	actorID, err := uuid.Parse(strings.TrimSpace(subject))
	if err != nil || actorID == uuid.Nil {
		return nil, ErrSubjectInvalid
	}

	account, err := a.ensureUser(ctx, actorID, claims)
	if err != nil {
		return nil, err
	}
	return a.contextFor(ctx, account), nil
}

// authenticateDev resolves the actor from the unsigned dev header. The
// account must already exist; fixtures seed it.
func (a *Authenticator) authenticateDev(ctx context.Context, r *http.Request) (context.Context, error) {
	actorID, err := parseUUID(r.Header.Get(devActorHeader))
	if err != nil {
		return nil, ErrAuthRequired
	}
	account, err := a.users.Get(ctx, actorID)
	if err != nil {
		var notFound *users.NotFoundError
		if errors.As(err, &notFound) {
			return nil, ErrActorUnknown
		}
		return nil, err
	}
	if account.Status == users.UserStatusSuspended {
		return nil, ErrActorSuspended
	}
	return a.contextFor(ctx, account), nil
}

func (a *Authenticator) verify(token string) (*accessTokenClaims, error) {
	claims := &accessTokenClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}
	if a.now != nil {
		opts = append(opts, jwt.WithTimeFunc(a.now))
	}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		a.logger.Debug("bearer token rejected", "error", err)
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ensureUser loads the local account for the token subject, provisioning it
// on first sight from the token claims.
func (a *Authenticator) ensureUser(ctx context.Context, actorID uuid.UUID, claims *accessTokenClaims) (*users.User, error) {
	account, err := a.users.Get(ctx, actorID)
	if err == nil {
		if account.Status == users.UserStatusSuspended {
			return nil, ErrActorSuspended
		}
		return account, nil
	}
	var notFound *users.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}
	return a.provision(ctx, actorID, claims)
}

// provision registers the account under the token subject. The signup screen
// captures the required consents before the identity provider mints a token,
// so the first sight registration records them at the policy version the
// token carries.
func (a *Authenticator) provision(ctx context.Context, actorID uuid.UUID, claims *accessTokenClaims) (*users.User, error) {
	email := strings.TrimSpace(claims.Email)
	if email == "" {
		a.logger.Warn("first sight provisioning skipped, token has no email claim", "actor_id", actorID.String())
		return nil, ErrActorUnknown
	}

	displayName := metadataString(claims.UserMetadata, "display_name")
	if displayName == "" {
		displayName = displayNameFromEmail(email)
	}
	province := domain.Province(strings.ToUpper(metadataString(claims.UserMetadata, "province")))
	if !province.Valid() {
		province = ""
	}
	version := metadataString(claims.UserMetadata, "consent_version")
	if version == "" {
		version = a.policyVersion
	}

	required := users.RequiredConsents()
	consents := make([]users.ConsentInput, 0, len(required))
	for _, consentType := range required {
		consents = append(consents, users.ConsentInput{
			Type:    consentType,
			Version: version,
			Granted: true,
		})
	}

	account, err := a.users.Register(ctx, users.RegisterUserRequest{
		ID:          actorID,
		Email:       email,
		DisplayName: displayName,
		Timezone:    metadataString(claims.UserMetadata, "timezone"),
		Province:    province,
		Method:      users.ConsentMethodSignup,
		Consents:    consents,
		Metadata:    map[string]any{"source": "token", "issuer": a.issuer},
	})
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			a.logger.Warn("first sight provisioning conflict", "actor_id", actorID.String(), "error", err)
			return nil, ErrActorUnknown
		}
		return nil, err
	}
	return account, nil
}

func (a *Authenticator) contextFor(ctx context.Context, account *users.User) context.Context {
	ctx = withActor(ctx, account)
	if a.families == nil {
		return ctx
	}
	return permissions.WithChecker(ctx, a.permissionSet(ctx, account.ID))
}

// permissionSet unions the role grants for every family the actor belongs
// to, scoped per family. An empty set denies family reads, which is the right
// answer for an actor with no memberships.
func (a *Authenticator) permissionSet(ctx context.Context, userID uuid.UUID) permissions.Set {
	set := permissions.Set{}
	list, err := a.families.List(ctx, userID)
	if err != nil {
		a.logger.Warn("membership lookup failed, denying family reads", "user_id", userID.String(), "error", err)
		return set
	}
	for _, family := range list {
		if family == nil {
			continue
		}
		member, err := a.families.Membership(ctx, family.ID, userID)
		if err != nil {
			continue
		}
		for token := range permissions.RoleSet(member.Role, family.ID.String()) {
			set[token] = struct{}{}
		}
	}
	return set
}

func bearerToken(header string) (string, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", false
	}
	return fields[1], true
}

func metadataString(metadata map[string]any, key string) string {
	if len(metadata) == 0 {
		return ""
	}
	value, ok := metadata[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func displayNameFromEmail(email string) string {
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}
	local = strings.TrimSpace(local)
	if local == "" {
		return "Caregiver"
	}
	return local
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrActorUnknown):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden", Message: err.Error()})
	case errors.Is(err, ErrActorSuspended):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "account_suspended", Message: err.Error()})
	case errors.Is(err, ErrAuthRequired), errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrSubjectInvalid):
		if w != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: err.Error()})
	default:
		writeError(w, err)
	}
}

type actorContextKey string

const actorContext actorContextKey = "nestsync.http.actor"

func withActor(ctx context.Context, account *users.User) context.Context {
	if ctx == nil || account == nil {
		return ctx
	}
	return context.WithValue(ctx, actorContext, account)
}

// ActorFromContext returns the authenticated user the middleware stored.
func ActorFromContext(ctx context.Context) (*users.User, bool) {
	if ctx == nil {
		return nil, false
	}
	account, ok := ctx.Value(actorContext).(*users.User)
	if !ok || account == nil {
		return nil, false
	}
	return account, true
}

func actorFrom(r *http.Request) *users.User {
	if r == nil {
		return nil
	}
	account, _ := ActorFromContext(r.Context())
	return account
}
