package models

// DerivedKey is an AES-128 content key, always 16 bytes.
type DerivedKey []byte

// ExchangeRequest is the input of the external key-exchange service.
// SecretKey carries the client's play auth token untouched.
type ExchangeRequest struct {
	SecretKey       string `json:"secretKey"`
	KID             string `json:"kid"`
	SessionID       string `json:"sessionId"`
	DRMType         string `json:"drmType"`
	VID             string `json:"vid"`
	GetLicenseURL   string `json:"getLicenseUrl"`
	UseUnionInfoDRM bool   `json:"useUnionInfoDRM"`
}

type DeriveKeyResponse struct {
	KID       string `json:"kid"`
	KeyLength int    `json:"keyLength"`
	Cached    bool   `json:"cached"`
}
