package models

import (
	"net/http"

	"hlsgate/enums"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type ProxyResponse struct {
	ContentType string
	Kind        enums.ContentKind
	Body        []byte
	Decrypted   bool
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Keys   int    `json:"keys"`
}
