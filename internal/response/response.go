package response

import "github.com/gin-gonic/gin"

// Success builds the uniform success envelope, merging the payload fields
// next to the status marker.
func Success(payload gin.H) gin.H {
	body := gin.H{"status": "ok"}
	for key, value := range payload {
		body[key] = value
	}
	return body
}

// Error builds the uniform error envelope.
func Error(code int, message string) gin.H {
	return gin.H{
		"status": "error",
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}
