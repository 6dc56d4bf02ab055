package proof

// Accepted is a proof payload that passed validation, held as compact JSON.
// Only Validator.Accept constructs a non-zero value, so any code holding one
// knows the payload was checked.
type Accepted struct {
	payload string
}

// String returns the compact JSON encoding passed to the credential contract.
func (a Accepted) String() string { return a.payload }

func (a Accepted) IsZero() bool { return a.payload == "" }
