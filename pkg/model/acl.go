package model

// ACEType is the kind of an access-control entry.
type ACEType string

const (
	ACEAllow ACEType = "Allow"
	ACEDeny  ACEType = "Deny"
)

// ACE is a platform-agnostic view of one access-control entry.
type ACE struct {
	Principal string
	Type      ACEType
	Rights    string
	Inherited bool
}
