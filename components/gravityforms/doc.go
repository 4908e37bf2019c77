// Package gravityforms exposes the Gravity Forms bridge as a net/http
// component: a schema endpoint backed by the WordPress OAuth proxy, a submit
// endpoint that forwards to the Gravity Forms REST API, and a fields endpoint
// returning the mapped contact fields for a form.
//
// Errors are written as JSON envelopes of the form
//
//	{"statusCode": 422, "message": "Validation failed", "messages": {"1": "..."}}
//
// Configuration failures never expose setting names to the client.
package gravityforms
