package handler

import (
	"net/http"
	"reflect"

	"github.com/jos3lo89/ice-mankora-backend/internal/apierror"
	"github.com/jos3lo89/ice-mankora-backend/internal/middleware"
	"github.com/jos3lo89/ice-mankora-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps a classified service error to its HTTP status. Internal
// errors are pushed onto the gin error list for the ErrorHandler middleware
// so nothing internal leaks into the body.
func respondError(c *gin.Context, err error) {
	status := apierror.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		return
	}
	c.JSON(status, apierror.New(err.Error()))
}

// actorFromClaims builds the service-layer caller identity from JWT claims.
func actorFromClaims(c *gin.Context) service.Actor {
	claims := middleware.GetClaims(c)
	actor := service.Actor{
		Username: claims.Username,
		Nombre:   claims.Nombre,
		Rol:      claims.Rol,
	}
	if id, err := uuid.Parse(claims.UserID); err == nil {
		actor.ID = id
	}
	for _, raw := range claims.PisoIDs {
		if id, err := uuid.Parse(raw); err == nil {
			actor.PisoIDs = append(actor.PisoIDs, id)
		}
	}
	return actor
}

// parseIDParam parses the :id path segment as a UUID.
func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("id inválido"))
		return uuid.Nil, false
	}
	return id, true
}
