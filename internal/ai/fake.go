package ai

import "context"

const cannedExtraction = `{"context_text":"","extracted_urgency":"medium","custom_requests":"Test context","past_agreements":"None"}`

const cannedQuoteText = "This is a test quote text"

// FakeProvider answers without any network call. It replaces the provider in
// tests and offline deployments.
type FakeProvider struct {
	// Response overrides the canned output when set.
	Response string
	// Err is returned as-is when set.
	Err error

	Requests []Request
}

func (p *FakeProvider) Complete(_ context.Context, req Request) (string, error) {
	p.Requests = append(p.Requests, req)
	if p.Err != nil {
		return "", p.Err
	}
	if p.Response != "" {
		return p.Response, nil
	}
	if req.JSONMode {
		return cannedExtraction, nil
	}
	return cannedQuoteText, nil
}
