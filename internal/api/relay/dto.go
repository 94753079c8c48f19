package relay

// QuestionRequest is the body accepted by every question endpoint.
type QuestionRequest struct {
	Question string `json:"question" binding:"required,notblank"`
}

// QuestionAnswerResponse is returned by the endpoints that do not persist.
type QuestionAnswerResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
