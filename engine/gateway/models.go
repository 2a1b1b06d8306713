package gateway

// RequestBody is the payload of a signing request: hex encoded blinded messages.
type RequestBody struct {
	Messages []string `json:"messages"`
}

type SubmitResult struct {
	ID string `json:"id"`
}

type SigResponse struct {
	ID         string   `json:"id"`
	Epoch      uint64   `json:"epoch,string"`
	Signatures []string `json:"signatures"`
}

type Status struct {
	PeerID    uint16 `json:"peer_id"`
	NextEpoch uint64 `json:"next_epoch,string"`
}

type ModelError struct {
	Code    int32  `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
