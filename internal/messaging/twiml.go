package messaging

import (
	"encoding/xml"
	"fmt"
)

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// RenderTwiML wraps a reply body in the markup Twilio expects back from a
// message webhook.
func RenderTwiML(body string) ([]byte, error) {
	payload, err := xml.Marshal(twimlResponse{Message: body})
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to render twiml: %w", err)
	}
	return append([]byte(xml.Header), payload...), nil
}
