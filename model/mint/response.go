package mint

// SigResponse carries the federation's final signatures over the messages of a
// client request, in message order, together with the epoch that completed it.
type SigResponse struct {
	RequestID  Identifier
	Epoch      uint64
	Signatures [][]byte
}
