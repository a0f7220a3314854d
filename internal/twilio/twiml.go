package twilio

import (
	"encoding/xml"
	"net/http"
)

// Response is a TwiML document.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

// Say speaks text.
type Say struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

// Gather collects speech and posts it to Action.
type Gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr,omitempty"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Language      string   `xml:"language,attr,omitempty"`
	Say           *Say
}

// Redirect sends the call to another TwiML URL.
type Redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

// Hangup ends the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Add appends verbs.
func (r *Response) Add(verbs ...any) *Response {
	r.Verbs = append(r.Verbs, verbs...)
	return r
}

// SpeechGather says prompt inside a speech Gather posting to action.
func SpeechGather(prompt, voice, action string) *Gather {
	return &Gather{
		Input:         "speech",
		Action:        action,
		Method:        http.MethodPost,
		SpeechTimeout: "auto",
		Language:      "en-US",
		Say:           &Say{Voice: voice, Text: prompt},
	}
}

// Marshal renders the document with the XML declaration.
func (r *Response) Marshal() ([]byte, error) {
	body, err := xml.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// Write renders r as an HTTP response.
func (r *Response) Write(w http.ResponseWriter) error {
	body, err := r.Marshal()
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(body)
	return err
}
