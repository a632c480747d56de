package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/vetcare/clinic-api/internal/models"
)

func performRBAC(t *testing.T, claims *models.JWTClaims, path, pattern string, allowed ...string) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET(pattern, func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}, RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(rec, req)
	return rec.Code
}

func vetClaims(vetID int64) *models.JWTClaims {
	return &models.JWTClaims{UserID: "u-1", Role: models.RoleVet, VetID: &vetID}
}

func TestRBACAllowsListedRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u-1", Role: models.RoleAdmin}
	code := performRBAC(t, claims, "/vets/1/blocks", "/vets/:vetId/blocks", string(models.RoleAdmin))
	assert.Equal(t, http.StatusOK, code)
}

func TestRBACRejectsUnlistedRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u-1", Role: models.RoleReception}
	code := performRBAC(t, claims, "/holidays", "/holidays", string(models.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRBACRejectsMissingClaims(t *testing.T) {
	code := performRBAC(t, nil, "/holidays", "/holidays", string(models.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRBACVetSelfMatchesRouteParam(t *testing.T) {
	code := performRBAC(t, vetClaims(7), "/vets/7/agenda", "/vets/:vetId/agenda", string(models.RoleAdmin), VetSelf)
	assert.Equal(t, http.StatusOK, code)
}

func TestRBACVetSelfRejectsOtherVet(t *testing.T) {
	code := performRBAC(t, vetClaims(7), "/vets/8/agenda", "/vets/:vetId/agenda", string(models.RoleAdmin), VetSelf)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRBACVetSelfMatchesQueryParam(t *testing.T) {
	code := performRBAC(t, vetClaims(7), "/blocks?vet_id=7", "/blocks", VetSelf)
	assert.Equal(t, http.StatusOK, code)

	code = performRBAC(t, vetClaims(7), "/blocks?vet_id=8", "/blocks", VetSelf)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRBACVetSelfRequiresBoundVet(t *testing.T) {
	// a VET user without a linked vet record never passes VetSelf
	claims := &models.JWTClaims{UserID: "u-1", Role: models.RoleVet}
	code := performRBAC(t, claims, "/vets/7/agenda", "/vets/:vetId/agenda", VetSelf)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRBACVetSelfDoesNotElevateOtherRoles(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u-1", Role: models.RoleReception}
	code := performRBAC(t, claims, "/vets/7/agenda?vet_id=7", "/vets/:vetId/agenda", VetSelf)
	assert.Equal(t, http.StatusForbidden, code)
}
