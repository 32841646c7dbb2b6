package utils

import (
	"context"

	"rental-system/pkg/contextkeys"
	apperrors "rental-system/pkg/errors"
	"rental-system/pkg/service"
)

func GetClaimsFromContext(ctx context.Context) (*service.JwtCustomClaim, error) {
	claims, ok := ctx.Value(contextkeys.UserClaimsKey).(*service.JwtCustomClaim)
	if !ok || claims == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}

// ClaimsOrNil — для эндпоинтов, где аутентификация необязательна (корзина).
func ClaimsOrNil(ctx context.Context) *service.JwtCustomClaim {
	claims, _ := ctx.Value(contextkeys.UserClaimsKey).(*service.JwtCustomClaim)
	return claims
}
