// Package gtranslate is a small client for the public Google Translate web
// endpoint (translate_a/single, client=gtx).
//
// The endpoint returns a nested JSON array rather than an object: element 0
// holds translated segments and element 2 the detected source language.
// Transport failures, 429 and 5xx responses are retried with exponential
// backoff; other statuses fail immediately.
package gtranslate
