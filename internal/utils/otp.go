package utils

import (
  "crypto/rand"
  "fmt"
  "math/big"
)

const (
  otpMin = 1000
  otpMax = 9999
)

// GenerateOTP draws a 4-digit code uniformly from 1000-9999.
func GenerateOTP() (string, error) {
  n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
  if err != nil {
    return "", fmt.Errorf("failed to draw otp: %w", err)
  }
  return fmt.Sprintf("%d", n.Int64()+otpMin), nil
}
