package auth

import (
	"errors"
	"fmt"
)

// ErrProfileTimeout is returned when the post-sign-in profile fetch exceeds
// the bounded wait. It is recoverable: the caller may retry sign-in.
var ErrProfileTimeout = errors.New("profile fetch timed out")

// AuthError carries a displayable authentication failure (bad credentials,
// signup conflict). It is propagated verbatim to the caller.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return e.Reason
}

// ProfileProvisioningError signals that sign-in succeeded but the profile
// record could not be fetched or created. Surfaced distinctly from
// AuthError so a client can distinguish "wrong password" from "account
// exists but profile broken".
type ProfileProvisioningError struct {
	Err error
}

func (e *ProfileProvisioningError) Error() string {
	return fmt.Sprintf("profile provisioning failed: %v", e.Err)
}

func (e *ProfileProvisioningError) Unwrap() error {
	return e.Err
}
