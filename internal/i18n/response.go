package i18n

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RespondWithError sends an HTTP error response for the given error.
// Errors without a code are answered with 500.
func RespondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	statusCode := http.StatusInternalServerError
	if ewc, ok := AsErrorWithCode(err); ok {
		statusCode = int(ewc.GetCode())
	}
	c.JSON(statusCode, gin.H{"error": TranslateError(c, err)})
}

// RespondWithSuccess sends a success response with a translated message.
// Entries of payload are merged at the top level.
func RespondWithSuccess(c *gin.Context, statusCode int, msgID string, payload gin.H) {
	response := gin.H{
		"message": TranslateMessage(c, msgID, nil),
	}
	for k, v := range payload {
		response[k] = v
	}
	c.JSON(statusCode, response)
}

// RespondOK sends a success HTTP response with status code 200
func RespondOK(c *gin.Context, msgID string) {
	RespondWithSuccess(c, http.StatusOK, msgID, nil)
}
