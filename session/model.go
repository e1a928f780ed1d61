package session

import "time"

// Snapshot is the cached view of a principal. It deliberately omits the
// password digest and the stored refresh token.
type Snapshot struct {
	ID          int64
	Email       string
	DisplayName string
	// Avatar is empty when the principal has no avatar reference.
	Avatar    string
	Confirmed bool
	CreatedAt time.Time
}

// Normalize returns s with CreatedAt reduced to the precision the encoder
// keeps, so a freshly loaded snapshot equals its decoded copy.
func (s Snapshot) Normalize() Snapshot {
	if !s.CreatedAt.IsZero() {
		s.CreatedAt = time.UnixMicro(s.CreatedAt.UnixMicro()).UTC()
	}
	return s
}
