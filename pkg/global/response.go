package global

type Response struct {
	Code      int         `json:"code"`
	Msg       string      `json:"msg"`
	RequestId string      `json:"requestId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func BuildResponse(code int, msg string, data interface{}) Response {
	return Response{
		Code: code,
		Msg:  msg,
		Data: data,
	}
}
