package dto

// MailMessage is the unit handed to a mail sender, and the payload published
// to Kafka when mail goes through the worker.
type MailMessage struct {
	From     string `json:"from"`
	FromName string `json:"from_name,omitempty"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTML     string `json:"html"`
}
