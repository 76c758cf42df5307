package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"ayurveda-clinic-backend/internal/domain/entity"
	"ayurveda-clinic-backend/pkg/response"
)

// RequireRole admits only callers whose role (from the access token) is one of
// roleIDs. It must run after Authenticate.
func RequireRole(roleIDs ...int) func(http.Handler) http.Handler {
	allowed := make(map[int]struct{}, len(roleIDs))
	names := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		allowed[id] = struct{}{}
		names = append(names, entity.RoleName(id))
	}
	denied := fmt.Sprintf("This action requires the %s role", strings.Join(names, " or "))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roleID, ok := GetRoleIDFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Role information not found")
				return
			}
			if _, ok := allowed[roleID]; !ok {
				response.Forbidden(w, denied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Route guards used by the router.
var (
	RequireAdmin         = RequireRole(entity.RoleIDAdmin)
	RequireDoctor        = RequireRole(entity.RoleIDDoctor)
	RequirePatient       = RequireRole(entity.RoleIDPatient)
	RequireAdminOrDoctor = RequireRole(entity.RoleIDAdmin, entity.RoleIDDoctor)
)
