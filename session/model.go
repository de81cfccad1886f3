package session

// Record is the stored form of a session. The session id is the Redis key suffix and
// is not part of the blob.
type Record struct {
	PersonID   string
	ExpiresAt  int64 // unix milliseconds
	Attributes map[string]string
}

// PersonRecord is the stored form of a person.
type PersonRecord struct {
	Attributes map[string]string
}
