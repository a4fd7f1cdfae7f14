package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/starford/stash/internal/apperr"
)

// LockState gates access to a file's content. The zero value is unlocked;
// a locked state always carries a password verifier.
type LockState struct {
	hash []byte
}

// digest maps a password of any length to the fixed-size bcrypt input.
// bcrypt only reads the first 72 bytes, so the whole password is hashed first.
func digest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}

// NewLock hashes password with the given bcrypt cost and returns a locked state.
func NewLock(password string, cost int) (LockState, error) {
	if password == "" {
		return LockState{}, apperr.ErrMissingSecret
	}
	h, err := bcrypt.GenerateFromPassword(digest(password), cost)
	if err != nil {
		return LockState{}, fmt.Errorf("lock: hash password: %w", err)
	}
	return LockState{hash: h}, nil
}

// sealedHash is stored for locks whose password could not be hashed. It is not
// a bcrypt hash, so no attempt ever verifies against it.
const sealedHash = "!sealed"

// SealedLock returns a locked state that no password opens.
func SealedLock() LockState {
	return LockState{hash: []byte(sealedHash)}
}

// LockFromHash restores a locked state from a stored verifier.
// An empty hash yields the unlocked state.
func LockFromHash(hash string) LockState {
	if hash == "" {
		return LockState{}
	}
	return LockState{hash: []byte(hash)}
}

// Locked reports whether a password is needed to read the content.
func (l LockState) Locked() bool { return len(l.hash) > 0 }

// Hash returns the stored verifier, empty when unlocked.
func (l LockState) Hash() string { return string(l.hash) }

// Verify checks attempt against the verifier. Unlocked states accept anything.
func (l LockState) Verify(attempt string) error {
	if !l.Locked() {
		return nil
	}
	if attempt == "" {
		return apperr.ErrPasswordRequired
	}
	if bcrypt.CompareHashAndPassword(l.hash, digest(attempt)) != nil {
		return apperr.ErrInvalidPassword
	}
	return nil
}
