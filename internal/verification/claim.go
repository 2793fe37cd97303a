package verification

import (
	"strings"

	"shule_tracker/internal/models"
)

// Claim is the method-specific credential presented with a custody
// transfer request. Exactly one of the two concrete claims is used per
// request; there is no fallback from one method to the other.
type Claim interface {
	Method() string
	matches(st *models.Student) bool
}

// PinClaim is a manually entered guardian code. Comparison trims
// whitespace on both sides and is plain-text on purpose: the rotating
// guardian code is a short-lived shared secret, unlike account login
// PINs which are hashed elsewhere.
type PinClaim struct {
	Pin string
}

func (c PinClaim) Method() string { return models.MethodPIN }

func (c PinClaim) matches(st *models.Student) bool {
	return strings.TrimSpace(c.Pin) == strings.TrimSpace(st.GuardianCode)
}

// QrClaim is a scanned handover token; it must equal the stored token
// exactly.
type QrClaim struct {
	Token string
}

func (c QrClaim) Method() string { return models.MethodQR }

func (c QrClaim) matches(st *models.Student) bool {
	return c.Token == st.HandoverToken
}
