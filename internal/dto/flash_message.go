package dto

// FlashMessage is a one-shot notice shown after a redirect.
type FlashMessage struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// MessagesData is the response payload of the flash message endpoint.
type MessagesData struct {
	Messages []FlashMessage `json:"messages"`
}
