package types

// SendRequest is the JSON body of POST /api/send.
type SendRequest struct {
	Message         string `json:"message"`
	SelectedIndexes []int  `json:"selectedIndexes"`
}

// SendResponse is returned by POST /api/send.
type SendResponse struct {
	Sent        bool   `json:"sent"`
	CaptchaIsOk bool   `json:"captchaIsOk"`
	Error       string `json:"error,omitempty"`
}
