package authcore

import "github.com/MrEthical07/authcore/autherr"

// Error kinds returned by Engine operations. Match them with errors.Is; the
// wrapped text may carry a cause for logs but is not meant for end users.
var (
	ErrDuplicateEmail        = autherr.ErrDuplicateEmail
	ErrInvalidCredentials    = autherr.ErrInvalidCredentials
	ErrInvalidInput          = autherr.ErrInvalidInput
	ErrChallengeExpired      = autherr.ErrChallengeExpired
	ErrChallengeInvalid      = autherr.ErrChallengeInvalid
	ErrLocked                = autherr.ErrLocked
	ErrTokenExpired          = autherr.ErrTokenExpired
	ErrTokenInvalid          = autherr.ErrTokenInvalid
	ErrTokenRevoked          = autherr.ErrTokenRevoked
	ErrDependencyUnavailable = autherr.ErrDependencyUnavailable
)

// Classify maps err to one of the error kinds above. Anything unrecognized is
// ErrDependencyUnavailable.
func Classify(err error) error {
	return autherr.Classify(err)
}
