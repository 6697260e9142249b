package services

import (
  "context"
  "crypto/subtle"
  "fmt"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"

  "github.com/sineva-org/sineva-backend/internal/logger"
  "github.com/sineva-org/sineva-backend/internal/metrics"
  "github.com/sineva-org/sineva-backend/internal/repos"
  "github.com/sineva-org/sineva-backend/internal/requestdata"
  "github.com/sineva-org/sineva-backend/internal/utils"
)

type JWTClaims struct {
  jwt.RegisteredClaims
  UserID      string      `json:"userId"`
  Email       string      `json:"email"`
}

// OTPCipher seals codes before they reach the credential store.
type OTPCipher interface {
  Encrypt(code string) (string, error)
  Decrypt(ciphertext string) (string, error)
}

// CleanupScheduler arranges for an unverified record to be removed later.
type CleanupScheduler interface {
  ScheduleCleanup(ctx context.Context, email string) error
}

type AuthService interface {
  SendOTP(ctx context.Context, email string) error
  VerifyOTP(ctx context.Context, email, otp string) (string, error)

  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
  GetTokenTTL() time.Duration
}

type authService struct {
  log               *logger.Logger
  authUserRepo      repos.AuthUserRepo
  otpCipher         OTPCipher
  scheduler         CleanupScheduler
  sender            OTPSender
  metrics           *metrics.Metrics
  jwtSecretKey      string
  tokenTTL          time.Duration
  generateOTP       func() (string, error)
}

func NewAuthService(
  log               *logger.Logger,
  authUserRepo      repos.AuthUserRepo,
  otpCipher         OTPCipher,
  scheduler         CleanupScheduler,
  sender            OTPSender,
  m                 *metrics.Metrics,
  jwtSecretKey      string,
  tokenTTL          time.Duration,
) AuthService {
  serviceLog := log.With("service", "AuthService")
  return &authService{
    log:          serviceLog,
    authUserRepo: authUserRepo,
    otpCipher:    otpCipher,
    scheduler:    scheduler,
    sender:       sender,
    metrics:      m,
    jwtSecretKey: jwtSecretKey,
    tokenTTL:     tokenTTL,
    generateOTP:  utils.GenerateOTP,
  }
}

//----------------------------------------------------------------------------------------------------------------------
// SendOTP, VerifyOTP
//----------------------------------------------------------------------------------------------------------------------

func (as *authService) SendOTP(ctx context.Context, email string) error {
  as.log.Info("Starting Send OTP now...")

  //1) Validate before touching any state. The email is the identifier as typed.
  if email == "" {
    as.metrics.OTPRequest(metrics.ResultInvalid)
    return ErrEmailRequired
  }
  if !utils.IsValidEmail(email) {
    as.log.Warn("Rejected malformed email, Cannot proceed.", "email", email)
    as.metrics.OTPRequest(metrics.ResultInvalid)
    return ErrInvalidEmail
  }

  //2) Fresh code, sealed
  code, err := as.generateOTP()
  if err != nil {
    as.metrics.OTPRequest(metrics.ResultError)
    return fmt.Errorf("Failure to generate otp: %w", err)
  }
  sealed, err := as.otpCipher.Encrypt(code)
  if err != nil {
    as.metrics.OTPRequest(metrics.ResultError)
    return fmt.Errorf("Failure to encrypt otp: %w", err)
  }

  //3) Upsert, verification status is left alone
  user, err := as.authUserRepo.UpsertOTP(ctx, nil, email, sealed)
  if err != nil {
    as.log.Warn("Failed to upsert auth user, Cannot proceed. Returning error.", "error", err)
    as.metrics.OTPRequest(metrics.ResultError)
    return fmt.Errorf("Failure to upsert auth user: %w", err)
  }

  //4) Cleanup task
  if err := as.scheduler.ScheduleCleanup(ctx, email); err != nil {
    as.log.Warn("Failed to schedule cleanup, Cannot proceed. Returning error.", "error", err)
    as.metrics.OTPRequest(metrics.ResultError)
    return fmt.Errorf("Failure to schedule cleanup: %w", err)
  }

  //5) Deliver. Record and task stay in place if this fails.
  if err := as.sender.SendOTP(ctx, email, code); err != nil {
    as.log.Warn("Failed to send otp email, Cannot proceed. Returning error.", "error", err)
    as.metrics.OTPRequest(metrics.ResultError)
    return fmt.Errorf("Failure to send otp email: %w", err)
  }

  as.log.Info("OTP issued :)", "id", user.ID, "verified", user.IsVerified)
  as.metrics.OTPRequest(metrics.ResultSent)
  return nil
}

func (as *authService) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
  as.log.Info("Starting Verify OTP now...")

  // Codes compare character for character, so otp is not trimmed.
  if email == "" || otp == "" {
    as.metrics.OTPVerification(metrics.ResultInvalid)
    return "", ErrOTPRequired
  }

  user, err := as.authUserRepo.GetByEmail(ctx, nil, email)
  if err != nil {
    as.metrics.OTPVerification(metrics.ResultError)
    return "", fmt.Errorf("Failure to fetch auth user: %w", err)
  }
  if user == nil || !user.HasOTP() {
    as.metrics.OTPVerification(metrics.ResultExpired)
    return "", ErrOTPExpired
  }

  sealed := *user.OTP
  stored, err := as.otpCipher.Decrypt(sealed)
  if err != nil {
    as.log.Error("Stored otp could not be decrypted", "id", user.ID, "error", err)
    as.metrics.OTPVerification(metrics.ResultError)
    return "", fmt.Errorf("Failure to decrypt stored otp: %w", err)
  }
  if subtle.ConstantTimeCompare([]byte(stored), []byte(otp)) != 1 {
    as.metrics.OTPVerification(metrics.ResultInvalid)
    return "", ErrInvalidOTP
  }

  // Only the request that still sees this exact ciphertext wins.
  swapped, err := as.authUserRepo.MarkVerified(ctx, nil, user.ID, sealed)
  if err != nil {
    as.metrics.OTPVerification(metrics.ResultError)
    return "", fmt.Errorf("Failure to mark auth user verified: %w", err)
  }
  if !swapped {
    as.log.Warn("OTP was consumed or replaced concurrently", "id", user.ID)
    as.metrics.OTPVerification(metrics.ResultExpired)
    return "", ErrOTPExpired
  }

  token, err := as.generateToken(user.ID, user.Email)
  if err != nil {
    as.metrics.OTPVerification(metrics.ResultError)
    return "", fmt.Errorf("Failure to sign token: %w", err)
  }
  as.log.Info("OTP verified :)", "id", user.ID)
  as.metrics.OTPVerification(metrics.ResultVerified)
  return token, nil
}

//----------------------------------------------------------------------------------------------------------------------
// Tokens
//----------------------------------------------------------------------------------------------------------------------

func (as *authService) generateToken(id uuid.UUID, email string) (string, error) {
  now := time.Now()
  claims := JWTClaims{
    RegisteredClaims: jwt.RegisteredClaims{
      Subject:   id.String(),
      ExpiresAt: jwt.NewNumericDate(now.Add(as.tokenTTL)),
      IssuedAt:  jwt.NewNumericDate(now),
    },
    UserID: id.String(),
    Email:  email,
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
    return []byte(as.jwtSecretKey), nil
  }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
  if err != nil {
    return ctx, fmt.Errorf("%w: %v", ErrInvalidToken, err)
  }
  claims, ok := parsedToken.Claims.(*JWTClaims)
  if !ok || !parsedToken.Valid {
    return ctx, ErrInvalidToken
  }
  subject := claims.UserID
  if subject == "" {
    subject = claims.Subject
  }
  userID, err := uuid.Parse(subject)
  if err != nil {
    return ctx, fmt.Errorf("%w: bad user id: %v", ErrInvalidToken, err)
  }
  rd := &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      userID,
    Email:       claims.Email,
  }
  return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetTokenTTL() time.Duration {
  return as.tokenTTL
}
