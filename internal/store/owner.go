package store

import (
	"fmt"
	"strconv"
)

// OwnerRef is a tagged owner identity: either a local numeric user id or an
// external (Google) id. Callers must build one at the HTTP boundary with
// ParseOwnerKey and pass it down; the distinction is never re-inferred later.
type OwnerRef struct {
	localID    int64
	externalID string
}

func LocalOwner(id int64) OwnerRef {
	return OwnerRef{localID: id}
}

func ExternalOwner(id string) OwnerRef {
	return OwnerRef{externalID: id}
}

// ParseOwnerKey classifies a caller-supplied owner key once. A key made up
// entirely of digits is a local id; anything else is an external id.
func ParseOwnerKey(key string) (OwnerRef, error) {
	if key == "" {
		return OwnerRef{}, fmt.Errorf("owner key is empty")
	}
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		return LocalOwner(id), nil
	}
	return ExternalOwner(key), nil
}

func (r OwnerRef) IsLocal() bool { return r.externalID == "" }

func (r OwnerRef) String() string {
	if r.IsLocal() {
		return strconv.FormatInt(r.localID, 10)
	}
	return r.externalID
}
