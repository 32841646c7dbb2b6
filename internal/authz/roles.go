package authz

import (
	apperrors "rental-system/pkg/errors"
	"rental-system/pkg/service"
)

// Роли системы. Права не размазаны по обработчикам: каждая операция
// делает ровно одну проверку через RequireRole.
const (
	RoleAdmin    = "admin"
	RoleSupplier = "supplier"
	RoleCustomer = "customer"
)

// RequireRole — единая точка проверки полномочий. Возвращает
// ErrUnauthorized при отсутствии claims и ErrForbidden, если роль
// вызывающего не входит в список допустимых.
func RequireRole(claims *service.JwtCustomClaim, roles ...string) error {
	if claims == nil {
		return apperrors.ErrUnauthorized
	}
	for _, role := range roles {
		if claims.Role == role {
			return nil
		}
	}
	return apperrors.ErrForbidden
}

// IsAdmin — короткая форма для веток «владелец или админ».
func IsAdmin(claims *service.JwtCustomClaim) bool {
	return claims != nil && claims.Role == RoleAdmin
}
