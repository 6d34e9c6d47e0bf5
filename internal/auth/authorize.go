package auth

import (
	"fmt"

	"github.com/Ultrahd-dev/course-catalog-app/internal/apperr"
	"github.com/Ultrahd-dev/course-catalog-app/internal/users"
)

// Require is the role check every mutating catalog operation runs first.
// It fails with apperr.ErrUnauthorized for anonymous callers and for callers
// holding a different role.
func Require(c Caller, role users.Role) error {
	if !c.Authenticated() {
		return apperr.Unauthorized("no session")
	}
	if c.Role != role {
		return apperr.Unauthorized(fmt.Sprintf("role %s required, caller is %s", role, c.Role))
	}
	return nil
}
