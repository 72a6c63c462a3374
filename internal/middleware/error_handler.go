package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CustomErrorHandler creates a custom error handler for Echo that renders
// every error as a JSON body with a stable shape.
func CustomErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	errorMessage := ""

	// Check if it's an Echo HTTPError
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code

		if msg, ok := he.Message.(string); ok && msg != "" {
			errorMessage = msg
		}

		if errorMessage == "" {
			switch code {
			case http.StatusNotFound:
				errorMessage = "The resource you're looking for doesn't exist."
			case http.StatusBadRequest:
				errorMessage = "The request could not be processed."
			case http.StatusConflict:
				errorMessage = "The operation conflicts with the current state."
			default:
				errorMessage = "Something went wrong. Please try again later."
			}
		}
	} else {
		errorMessage = "Something went wrong. Please try again later."
	}

	// Log the error
	c.Logger().Error(err)

	if c.Response().Committed {
		return
	}

	if writeErr := c.JSON(code, map[string]string{"error": errorMessage}); writeErr != nil {
		c.Logger().Error(writeErr)
	}
}
