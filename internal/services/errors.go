package services

import "errors"

// Caller errors. Handlers map these to 4xx responses with the error text as
// the message.
var (
  ErrEmailRequired          = errors.New("Email is required")
  ErrInvalidEmail           = errors.New("Not a valid email")
  ErrOTPRequired            = errors.New("Email and OTP are required")
  ErrOTPExpired             = errors.New("OTP expired or user not found. Please resend OTP.")
  ErrInvalidOTP             = errors.New("Invalid OTP")
  ErrInvalidToken           = errors.New("Invalid or expired token")

  ErrPromptOrImageRequired  = errors.New("Prompt or image is required")
  ErrTextOrImageRequired    = errors.New("Text or image is required")
  ErrImageNotFound          = errors.New("Image not found")
  ErrDetailsRequired        = errors.New("details is required")
  ErrUnsupportedImage       = errors.New("Unsupported image file")
  ErrImageTooLarge          = errors.New("Image file is too large")
  ErrImageURLFetch          = errors.New("Failed to process image URL.")
)

// Upstream model errors. These surface as 500 with the error text as the message.
var (
  ErrNoCandidates           = errors.New("No candidates returned")
  ErrNoImageInResponse      = errors.New("No image found in Gemini response")
  ErrNoTextInResponse       = errors.New("No response from Gemini")
)
