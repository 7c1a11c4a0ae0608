package authflow

// StateStatus is the phase of an in-flight authorization-code exchange.
type StateStatus string

const (
	// StatePending means the state was stored at redirect time and no
	// exchange attempt has claimed it yet.
	StatePending StateStatus = "pending"
	// StateInUse means an exchange attempt has claimed the state. The
	// transition is one-way; a record never goes back to pending.
	StateInUse StateStatus = "in_use"
)

// OAuthStateRecord is one in-flight authorization-code exchange, keyed by an
// opaque high-entropy state token. MarkedAt is the store's clock (unix
// seconds), set exactly once at the first successful claim.
//
// Records written by older deployments carry neither status nor marked_at;
// both fields decode as absent and the record is treated as pending.
type OAuthStateRecord struct {
	TenantDomain string      `json:"domain"`
	Provider     string      `json:"provider"`
	PKCEVerifier string      `json:"pkce_verifier"`
	Status       StateStatus `json:"status,omitempty"`
	MarkedAt     int64       `json:"marked_at,omitempty"`
}

// EffectiveStatus resolves a missing status to pending.
func (r *OAuthStateRecord) EffectiveStatus() StateStatus {
	if r.Status == "" {
		return StatePending
	}
	return r.Status
}

// MagicLinkRecord is one single-use bearer credential. It is stored under the
// scoped hash of the raw token, never the raw token itself. Binding is
// optional opaque client context; when present it must match at consume time.
type MagicLinkRecord struct {
	TenantDomain string `json:"domain"`
	Email        string `json:"email"`
	Binding      string `json:"binding,omitempty"`
}
