package middleware

import (
	"net/http"

	"github.com/radake/polihub/shared/domain"
	internal_errors "github.com/radake/polihub/shared/errors"
	"github.com/radake/polihub/shared/logger"
	"github.com/radake/polihub/shared/utils"
)

// RequirePermission must run after NeedStaff. Anything but an explicit grant
// is a deny.
func RequirePermission(p domain.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentityFromContext(r)
			if !identity.IsStaff() || !domain.HasPermission(identity.Permissions, p) {
				if identity != nil {
					logger.Log.Info("permission denied", "permission", p, "staff_id", identity.StaffId)
				}
				utils.WriteErrorAndStatusCode(w, internal_errors.Unauthorized("Access denied. Missing permission "+string(p)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
