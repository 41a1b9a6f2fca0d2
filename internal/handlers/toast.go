package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Toast headers let the dashboard show a notification for a JSON response
// without inspecting the body.
const (
	headerToastType    = "X-Toast-Type"
	headerToastTitle   = "X-Toast-Title"
	headerToastMessage = "X-Toast-Message"
)

func setToast(c *gin.Context, typ, title, msg string) {
	if c == nil {
		return
	}
	for header, value := range map[string]string{
		headerToastType:    typ,
		headerToastTitle:   title,
		headerToastMessage: msg,
	} {
		// Header values cannot carry line breaks.
		value = strings.Join(strings.Fields(value), " ")
		if value != "" {
			c.Header(header, value)
		}
	}
}

func ToastSuccess(c *gin.Context, title, msg string) { setToast(c, "success", title, msg) }
func ToastWarn(c *gin.Context, title, msg string)    { setToast(c, "warning", title, msg) }
