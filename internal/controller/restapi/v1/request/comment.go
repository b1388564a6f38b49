package request

// Comment is accepted as JSON or as a form.
type Comment struct {
	Text string `json:"text" form:"text" example:"nice shot"`
}
