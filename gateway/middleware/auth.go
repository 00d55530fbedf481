package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	jwt "github.com/golang-jwt/jwt/v5"
)

// AuthConfig controls the bearer-token authenticator guarding mutating
// endpoints. The JWT subject claim carries the caller's account address.
type AuthConfig struct {
	Enabled    bool
	HMACSecret string
	ClockSkew  time.Duration
}

type contextKey string

const contextKeyAccount contextKey = "stabled.account"

// Authenticator validates HS256 bearer tokens and injects the caller account
// into the request context.
type Authenticator struct {
	cfg    AuthConfig
	logger *slog.Logger
	secret []byte
}

func NewAuthenticator(cfg AuthConfig, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 2 * time.Minute
	}
	return &Authenticator{
		cfg:    cfg,
		logger: logger,
		secret: []byte(strings.TrimSpace(cfg.HMACSecret)),
	}
}

// Middleware rejects requests without a valid token when authentication is
// enabled. The token subject must be a hex account address.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}
			tokenString := extractBearer(r.Header.Get("Authorization"))
			if tokenString == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			account, err := a.parse(tokenString)
			if err != nil {
				a.logger.Warn("rejected bearer token", "err", err)
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
		})
	}
}

func (a *Authenticator) parse(tokenString string) (common.Address, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithLeeway(a.cfg.ClockSkew))
	if err != nil {
		return common.Address{}, err
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(subject) {
		return common.Address{}, jwt.ErrTokenInvalidSubject
	}
	return common.HexToAddress(subject), nil
}

func extractBearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// WithAccount stores the caller account on the context.
func WithAccount(ctx context.Context, account common.Address) context.Context {
	return context.WithValue(ctx, contextKeyAccount, account)
}

// Account extracts the authenticated caller account from the context.
func Account(ctx context.Context) (common.Address, bool) {
	account, ok := ctx.Value(contextKeyAccount).(common.Address)
	return account, ok
}
