package echoapi

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

const (
	signingMethod = "HS256"

	// contextUserKey is where the gate stores the decoded user claim.
	contextUserKey   = "user"
	contextClaimsKey = "userClaims"
	contextObjectKey = "object"
)

// credential errors tag the reason a token was rejected; handlers map them
// to client-facing responses and the underlying cause stays in the logs.
var (
	errCredentialMissing   = errors.New("authorization header missing")
	errCredentialMalformed = errors.New("authorization header malformed")
	errCredentialInvalid   = errors.New("token verification failed")
)

type (
	// UserClaim is the user payload carried in a token and exposed to
	// handlers via the request context.
	UserClaim struct {
		ID       string   `json:"id"`
		Name     string   `json:"name,omitempty"`
		Username string   `json:"username,omitempty"`
		Email    string   `json:"email,omitempty"`
		Roles    []string `json:"roles,omitempty"`
	}

	// Claims represents the authorization claims transmitted via a JWT.
	Claims struct {
		jwt.StandardClaims
		OrigIssuedAt int64     `json:"oriat,omitempty"`
		User         UserClaim `json:"user"`
	}

	jwtAuth struct {
		secret []byte
		conf   *core.Config
		logger core.Logger
	}
)

func (uc UserClaim) roleStartsWith(prefix string) bool {
	for _, role := range uc.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (uc UserClaim) IsAdmin() bool   { return uc.roleStartsWith(user.RoleAdmin) }
func (uc UserClaim) IsTeacher() bool { return uc.roleStartsWith(user.RoleTeacher) }
func (uc UserClaim) IsStudent() bool { return uc.roleStartsWith(user.RoleStudent) }

// newJWTAuth builds the token issuer/verifier; the signing secret comes from
// the app config and is never read from the environment here.
func newJWTAuth(conf *core.Config, logger core.Logger) *jwtAuth {
	return &jwtAuth{
		secret: []byte(conf.SecretKey),
		conf:   conf,
		logger: logger,
	}
}

func (a *jwtAuth) userClaims(usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		User: UserClaim{
			ID:       usr.ID,
			Name:     usr.Name,
			Username: usr.Username,
			Email:    usr.Email,
			Roles:    usr.Roles,
		},
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (a *jwtAuth) GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(signingMethod), claims)
	ss, err := token.SignedString(a.secret)
	return ss, errors.Wrap(err, "signing token")
}

// parseAuthorization verifies the Authorization header and returns the token
// claims. Failures are tagged with one of the credential errors so the caller
// can tell a missing header from a malformed one from a bad token.
func (a *jwtAuth) parseAuthorization(header string) (*Claims, error) {
	if header == "" {
		return nil, errCredentialMissing
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return nil, errCredentialMalformed
	}

	claims := new(Claims)
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != signingMethod {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, errors.Wrapf(errCredentialInvalid, "parsing token: %v", err)
	}
	if !token.Valid {
		return nil, errCredentialInvalid
	}
	return claims, nil
}

// Gate authenticates every request entering the group it is mounted on.
// On success the decoded user claim is attached to the request context and
// the request proceeds untouched; on failure the chain stops with a 401.
func (a *jwtAuth) Gate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Request().Header.Get(echo.HeaderAuthorization)
			claims, err := a.parseAuthorization(header)
			if err != nil {
				switch errors.Cause(err) {
				case errCredentialMissing:
					return errTokenMissing
				case errCredentialMalformed:
					return errTokenMalformed
				default:
					// the reason stays server-side; clients get a generic 401
					a.logger.Debug(err.Error())
					return errTokenInvalid
				}
			}
			ctx.Set(contextClaimsKey, *claims)
			ctx.Set(contextUserKey, claims.User)
			return next(ctx)
		}
	}
}

func (a *jwtAuth) authenticate(ctx echo.Context, uname, pwd string, svc user.Service) (*Claims, error) {
	rctx := ctx.Request().Context()

	usr, err := svc.GetByUsernameOrEmail(rctx, uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !usr.Active() {
		return nil, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(rctx, usr)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return a.userClaims(usr), nil
}

func (a *jwtAuth) refreshToken(ctx echo.Context, svc user.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return "", errors.Wrap(err, "finding user by ID")
	}

	// check if user is still active
	if !usr.Active() {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := a.GenerateToken(a.userClaims(usr, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(Claims); ok {
		return claims, nil
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context) (UserClaim, error) {
	if usr, ok := ctx.Get(contextUserKey).(UserClaim); ok {
		return usr, nil
	}
	return UserClaim{}, errUnauthorized
}
