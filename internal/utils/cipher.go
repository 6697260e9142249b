package utils

import (
  "crypto/cipher"
  "crypto/rand"
  "crypto/sha256"
  "encoding/hex"
  "errors"
  "fmt"
  "io"
  "strings"

  "golang.org/x/crypto/chacha20poly1305"
  "golang.org/x/crypto/hkdf"
)

const otpCipherInfo = "sineva-otp-cipher-v1"

var (
  ErrEmptyCipherSecret = errors.New("otp cipher secret is empty")
  ErrMalformedCiphertext = errors.New("malformed otp ciphertext")
)

// OTPCipher encrypts one-time codes at rest with XChaCha20-Poly1305.
// Ciphertexts look like hex(nonce):hex(sealed); every call draws a fresh nonce.
type OTPCipher struct {
  aead        cipher.AEAD
}

func NewOTPCipher(secret string) (*OTPCipher, error) {
  if secret == "" {
    return nil, ErrEmptyCipherSecret
  }
  key := make([]byte, chacha20poly1305.KeySize)
  kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(otpCipherInfo))
  if _, err := io.ReadFull(kdf, key); err != nil {
    return nil, fmt.Errorf("failed to derive otp cipher key: %w", err)
  }
  aead, err := chacha20poly1305.NewX(key)
  if err != nil {
    return nil, fmt.Errorf("failed to init otp cipher: %w", err)
  }
  return &OTPCipher{aead: aead}, nil
}

func (oc *OTPCipher) Encrypt(plaintext string) (string, error) {
  nonce := make([]byte, oc.aead.NonceSize())
  if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
    return "", fmt.Errorf("failed to generate nonce: %w", err)
  }
  sealed := oc.aead.Seal(nil, nonce, []byte(plaintext), nil)
  return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

func (oc *OTPCipher) Decrypt(ciphertext string) (string, error) {
  nonceHex, sealedHex, ok := strings.Cut(ciphertext, ":")
  if !ok {
    return "", ErrMalformedCiphertext
  }
  nonce, err := hex.DecodeString(nonceHex)
  if err != nil || len(nonce) != oc.aead.NonceSize() {
    return "", ErrMalformedCiphertext
  }
  sealed, err := hex.DecodeString(sealedHex)
  if err != nil {
    return "", ErrMalformedCiphertext
  }
  plain, err := oc.aead.Open(nil, nonce, sealed, nil)
  if err != nil {
    return "", fmt.Errorf("failed to open otp ciphertext: %w", err)
  }
  return string(plain), nil
}
