package types

// Secret holds a credential value. Values of this type are redacted from logs.
type Secret string

func (s Secret) String() string {
	return string(s)
}
