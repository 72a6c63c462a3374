package middleware

import (
	"github.com/labstack/echo/v4"
)

const operatorKey = "operator"

// DefaultOperator is used when the host shell passes no operator identity.
const DefaultOperator = "cajeroSYS"

// OperatorContext resolves the operator identity the host shell forwards
// (header first, query param as fallback) and sets it in the request context
// for downstream handlers. There is no authentication here: the identity is
// forwarded verbatim to the billing backend, which owns access control.
func OperatorContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			operator := c.Request().Header.Get("X-Operator")
			if operator == "" {
				operator = c.QueryParam("usuario")
			}
			if operator == "" {
				operator = DefaultOperator
			}
			c.Set(operatorKey, operator)
			return next(c)
		}
	}
}

// OperatorFromContext returns the operator set by OperatorContext, or the
// default when the middleware did not run.
func OperatorFromContext(c echo.Context) string {
	if val := c.Get(operatorKey); val != nil {
		if operator, ok := val.(string); ok && operator != "" {
			return operator
		}
	}
	return DefaultOperator
}
