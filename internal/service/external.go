package service

import "context"

// AccountClaimer links a freshly issued UID to an account managed outside
// this service (for example a chat-bot onboarding flow).
type AccountClaimer interface {
	Claim(ctx context.Context, uid string) error
}

// NopClaimer accepts every UID.
type NopClaimer struct{}

func (NopClaimer) Claim(context.Context, string) error { return nil }

// ImageValidator checks an uploaded image and returns its normalized
// encoding.
type ImageValidator interface {
	ValidateImage(ctx context.Context, encoded string) (string, error)
}

// NopImageValidator returns the image unchanged.
type NopImageValidator struct{}

func (NopImageValidator) ValidateImage(_ context.Context, encoded string) (string, error) {
	return encoded, nil
}
