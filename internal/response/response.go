package response

import (
	"log"
	"net/http"
	"strconv"

	"brandlink/internal/apperror"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Status: "success", Message: message, Data: data})
}

func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Status: "success", Message: message, Data: data})
}

func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Envelope{Status: "error", Message: message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// FromError writes err using its AppError code, or 500 for anything else.
// Internal details are logged, not returned.
func FromError(c *gin.Context, err error) {
	if appErr, ok := apperror.As(err); ok {
		if appErr.Code >= http.StatusInternalServerError {
			log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.FullPath(), err)
		}
		Error(c, appErr.Code, appErr.Message)
		return
	}
	log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.FullPath(), err)
	Error(c, http.StatusInternalServerError, "internal error")
}

// Page holds page/limit query parameters.
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

const maxLimit = 100

func NewPage(c *gin.Context) Page {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

func Paginated(c *gin.Context, message string, data interface{}, total int64, p Page) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": message,
		"data":    data,
		"pagination": gin.H{
			"total":       total,
			"page":        p.Page,
			"per_page":    p.Limit,
			"total_pages": (total + int64(p.Limit) - 1) / int64(p.Limit),
		},
	})
}
