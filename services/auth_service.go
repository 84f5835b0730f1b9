package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"campus-events-api/models"
	"campus-events-api/repositories"
	"campus-events-api/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	resetTokenPurpose = "password_reset"
	resetTokenTTL     = 15 * time.Minute
)

// SessionClaims is the payload of every issued bearer token.
type SessionClaims struct {
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	jwt.RegisteredClaims
}

// resetClaims carries a fingerprint of the password hash at issue time.
// Resetting changes the hash, so a link works once.
type resetClaims struct {
	Purpose       string `json:"purpose"`
	PasswordStamp string `json:"pwd"`
	jwt.RegisteredClaims
}

func passwordStamp(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}

type AuthOptions struct {
	JWTSecret          string
	TokenTTL           time.Duration
	BcryptCost         int
	FrontendURL        string
	GoogleClientID     string
	GoogleTokenInfoURL string
	HTTPClient         *http.Client
}

type AuthService struct {
	users     *repositories.UserRepository
	directory *UserService
	mailer    Mailer
	opts      AuthOptions
}

func NewAuthService(users *repositories.UserRepository, directory *UserService, mailer Mailer, opts AuthOptions) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.BcryptCost < bcrypt.MinCost {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &AuthService{users: users, directory: directory, mailer: mailer, opts: opts}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Pronouns  string
	Role      models.Role
}

type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	taken, err := s.users.EmailTaken(ctx, in.Email)
	if err != nil {
		return nil, utils.Wrap(err, "Error registering user")
	}
	if taken {
		return nil, utils.Conflict("Email already registered")
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, utils.BadRequest("Invalid role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, utils.Wrap(err, "Error registering user")
	}

	user := models.User{
		ID:        uuid.New().String(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Pronouns:  in.Pronouns,
		Password:  string(hash),
		Role:      role,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if taken, _ := s.users.EmailTaken(ctx, in.Email); taken {
			return nil, utils.Conflict("Email already registered")
		}
		return nil, utils.Wrap(err, "Error registering user")
	}

	return s.issue(&user)
}

// Login never reveals which of email or password was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, utils.Unauthorized("Invalid credentials")
		}
		return nil, utils.Wrap(err, "Error logging in")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, utils.Unauthorized("Invalid credentials")
	}

	return s.issue(user)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return utils.NotFound("User not found")
		}
		return utils.Wrap(err, "Error changing password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return utils.BadRequest("Current password is incorrect")
	}

	return s.setPassword(ctx, userID, next, "Error changing password")
}

func (s *AuthService) setPassword(ctx context.Context, userID, password, failure string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return utils.Wrap(err, failure)
	}
	if err := s.users.Updates(ctx, userID, map[string]interface{}{"password": string(hash)}); err != nil {
		if repositories.IsNotFound(err) {
			return utils.NotFound("User not found")
		}
		return utils.Wrap(err, failure)
	}
	return nil
}

// VerifyToken validates a bearer token and loads the user it names.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return nil, utils.Unauthorized("Invalid or expired token")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, utils.Unauthorized("Invalid or expired token")
		}
		return nil, utils.Wrap(err, "Error verifying token")
	}
	user.Password = ""
	return user, nil
}

// ForgotPassword mails a reset link when the account exists. It succeeds
// either way so callers cannot probe for registered emails.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil
		}
		return utils.Wrap(err, "Error requesting password reset")
	}

	now := time.Now()
	claims := resetClaims{
		Purpose:       resetTokenPurpose,
		PasswordStamp: passwordStamp(user.Password),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(resetTokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.JWTSecret))
	if err != nil {
		return utils.Wrap(err, "Error requesting password reset")
	}

	link := s.opts.FrontendURL + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.mailer.SendPasswordResetEmail(user.Email, user.FirstName, link); err != nil {
		return utils.Wrap(err, "Error sending password reset email")
	}
	return nil
}

func invalidResetToken() error {
	return utils.Unauthorized("Invalid or expired reset token")
}

// ResetPassword sets a new password from a link issued by ForgotPassword.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	claims := &resetClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || claims.Purpose != resetTokenPurpose || claims.Subject == "" {
		return invalidResetToken()
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if repositories.IsNotFound(err) {
			return invalidResetToken()
		}
		return utils.Wrap(err, "Error resetting password")
	}
	if claims.PasswordStamp != passwordStamp(user.Password) {
		return invalidResetToken()
	}
	return s.setPassword(ctx, user.ID, password, "Error resetting password")
}

type googleTokenInfo struct {
	Audience      string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Expiry        string `json:"exp"`
}

// GoogleLogin signs in (or signs up) the owner of a Google ID token and
// stores the provider token bundle on the account.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken, accessToken, refreshToken string) (*AuthResult, error) {
	info, err := s.verifyGoogleToken(ctx, idToken)
	if err != nil {
		log.Printf("Google token verification failed: %v", err)
		return nil, utils.Unauthorized("Invalid Google token")
	}

	user, err := s.directory.GetByEmail(ctx, info.Email)
	if err != nil && utils.KindOf(err) != utils.KindNotFound {
		return nil, err
	}
	if user == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), s.opts.BcryptCost)
		if err != nil {
			return nil, utils.Wrap(err, "Error signing in with Google")
		}
		user = &models.User{
			ID:        uuid.New().String(),
			FirstName: info.GivenName,
			LastName:  info.FamilyName,
			Email:     info.Email,
			Password:  string(hash),
			Role:      models.RoleUser,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, utils.Wrap(err, "Error signing in with Google")
		}
	}

	creds := models.OAuthCredentials{
		Provider:     "google",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		IDToken:      idToken,
	}
	if exp, err := strconv.ParseInt(info.Expiry, 10, 64); err == nil {
		t := time.Unix(exp, 0)
		creds.ExpiresAt = &t
	}
	if err := s.directory.UpdateOAuthCredentials(ctx, user.ID, creds); err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *AuthService) verifyGoogleToken(ctx context.Context, idToken string) (*googleTokenInfo, error) {
	endpoint := s.opts.GoogleTokenInfoURL + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tokeninfo returned %s", resp.Status)
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	if info.Email == "" || !strings.EqualFold(info.EmailVerified, "true") {
		return nil, errors.New("email missing or unverified")
	}
	if s.opts.GoogleClientID != "" && info.Audience != s.opts.GoogleClientID {
		return nil, errors.New("token issued for a different client")
	}
	return &info, nil
}

func (s *AuthService) keyFunc(token *jwt.Token) (interface{}, error) {
	return []byte(s.opts.JWTSecret), nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	now := time.Now()
	expiresAt := now.Add(s.opts.TokenTTL)
	claims := SessionClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.JWTSecret))
	if err != nil {
		return nil, utils.Wrap(err, "Failed to generate token")
	}

	safe := *user
	safe.Password = ""
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: safe}, nil
}
