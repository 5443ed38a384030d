package domain

import "fmt"

// DocumentRef addresses a document either as the legacy shared document of a
// group or as one user's personal document within a group. The two variants
// have different lifecycles: shared documents are never auto-created, user
// documents are created lazily on the first snapshot save.
type DocumentRef struct {
	groupID uint
	userID  uint
	perUser bool
}

// SharedDocument refers to the group's single shared document.
func SharedDocument(groupID uint) DocumentRef {
	return DocumentRef{groupID: groupID}
}

// UserDocument refers to userID's personal document in groupID.
func UserDocument(groupID, userID uint) DocumentRef {
	return DocumentRef{groupID: groupID, userID: userID, perUser: true}
}

// GroupID returns the owning group.
func (r DocumentRef) GroupID() uint { return r.groupID }

// Owner returns the owning user and true for per-user documents.
func (r DocumentRef) Owner() (uint, bool) { return r.userID, r.perUser }

// OwnerKey is the value stored in documents.owner_key for this ref.
func (r DocumentRef) OwnerKey() uint {
	if r.perUser {
		return r.userID
	}
	return 0
}

func (r DocumentRef) String() string {
	if r.perUser {
		return fmt.Sprintf("user-document(group=%d,user=%d)", r.groupID, r.userID)
	}
	return fmt.Sprintf("shared-document(group=%d)", r.groupID)
}
