// Package api defines the wire types of the TokenCounter HTTP API.
//
// # API Overview
//
// TokenCounter provides:
//   - POST /api/token: count and list the tokens of a text
//   - GET /api/tokenizers: list the available tokenizer backends
//   - GET|POST /token: the interactive page
//   - Health monitoring (/health, /healthz, /ready, /version)
//
// # Authentication
//
// When server.api_keys is configured, /api/* endpoints require the
// X-API-Key header:
//
//	X-API-Key: your-api-key
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:7860
//
// # Example
//
//	curl -X POST http://localhost:7860/api/token \
//	  -H 'Content-Type: application/json' \
//	  -d '{"text": "The quick brown fox jumps over the lazy dog.", "tokenizer_type": "tiktoken"}'
//
//	{"count":10,"tokens":["The"," quick"," brown"," fox"," jumps"," over"," the"," lazy"," dog","."]}
package api
