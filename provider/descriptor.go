package provider

import (
	"net/http"
	"strings"
)

// Header is a single case-preserving header line.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered header list. Names keep the case the provider expects.
type Headers []Header

// Get returns the first value whose name matches case-insensitively.
func (h Headers) Get(name string) string {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value
		}
	}
	return ""
}

// Names returns header names in order.
func (h Headers) Names() []string {
	names := make([]string, len(h))
	for i, hdr := range h {
		names[i] = hdr.Name
	}
	return names
}

// FormField is a single hidden form input, in wire order.
type FormField struct {
	Name  string
	Value string
}

// Delivery says who performs the provider call.
type Delivery string

const (
	// DeliveryServer calls go through the Transport
	DeliveryServer Delivery = "server"
	// DeliveryBrowser calls are an HTML document the buyer's browser submits
	DeliveryBrowser Delivery = "browser"
)

// CallDescriptor is an immutable description of one provider call.
type CallDescriptor struct {
	method   string
	url      string
	headers  Headers
	body     []byte
	form     []FormField
	delivery Delivery
}

// NewServerCall describes a request the Transport sends on our behalf.
func NewServerCall(method, url string, headers Headers, body []byte) CallDescriptor {
	return CallDescriptor{
		method:   method,
		url:      url,
		headers:  append(Headers(nil), headers...),
		body:     append([]byte(nil), body...),
		delivery: DeliveryServer,
	}
}

// NewBrowserCall describes a form the buyer's browser posts to action.
// document is the rendered, self-submitting HTML.
func NewBrowserCall(action string, form []FormField, document []byte) CallDescriptor {
	return CallDescriptor{
		method:   http.MethodPost,
		url:      action,
		headers:  Headers{{Name: "Content-Type", Value: "text/html; charset=utf-8"}},
		body:     append([]byte(nil), document...),
		form:     append([]FormField(nil), form...),
		delivery: DeliveryBrowser,
	}
}

func (d CallDescriptor) Method() string     { return d.method }
func (d CallDescriptor) URL() string        { return d.url }
func (d CallDescriptor) Delivery() Delivery { return d.delivery }

// Headers returns a copy of the ordered headers.
func (d CallDescriptor) Headers() Headers {
	return append(Headers(nil), d.headers...)
}

// Body returns a copy of the request body, or the HTML document for
// browser delivery.
func (d CallDescriptor) Body() []byte {
	return append([]byte(nil), d.body...)
}

// Form returns a copy of the form fields in wire order.
func (d CallDescriptor) Form() []FormField {
	return append([]FormField(nil), d.form...)
}

// FormValue returns the value of the named form field.
func (d CallDescriptor) FormValue(name string) string {
	for _, f := range d.form {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// RawResponse is what the Transport hands back.
type RawResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}
