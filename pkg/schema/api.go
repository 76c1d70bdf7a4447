package schema

// CreateSecretRequest is the body of POST /secret.
type CreateSecretRequest struct {
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase,omitempty"`
	TTLSeconds int64  `json:"ttl_seconds,omitempty"`
}

// CreateSecretResponse returns the opaque retrieval key for a new secret.
type CreateSecretResponse struct {
	SecretKey string `json:"secret_key"`
}

// ReadSecretResponse carries the plaintext of a consumed secret.
type ReadSecretResponse struct {
	Secret string `json:"secret"`
}

// DeleteSecretResponse confirms an explicit deletion.
type DeleteSecretResponse struct {
	Status string `json:"status"`
}

// StatusDeleted is the body value returned on successful deletion.
const StatusDeleted = "secret_deleted"

// ErrorResponse is the wire shape of all error replies.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Audit actions recorded per lifecycle transition.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionDelete = "delete"
)
