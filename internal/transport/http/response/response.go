package response

import "github.com/gin-gonic/gin"

// Resp is the envelope every endpoint answers with.
type Resp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

// New never leaves Data null.
func New(code int, msg string, data any) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

func OK(data any) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error builds a failure; an empty customMsg falls back to the code's text.
func Error(code int, customMsg string) Resp {
	return ErrorWith(code, customMsg, nil)
}

// ErrorWith is Error with a payload, e.g. the partial result of an import.
func ErrorWith(code int, customMsg string, data any) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, data)
}

// Abort writes r with its matching HTTP status and stops the chain.
func Abort(c *gin.Context, r Resp) {
	c.AbortWithStatusJSON(Status(r.Code), r)
}
