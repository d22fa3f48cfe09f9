// Package sync is the GitHub synchronization core: it turns a decrypted
// access token, repository coordinates, and a set of in-memory files into
// exactly one commit on the target branch, or a step-identified failure that
// leaves the branch untouched.
package sync

// Coordinates addresses a branch in a repository. All three values come from
// an external admin action and are treated as untrusted path segments by the
// git host client.
type Coordinates struct {
	Owner  string
	Repo   string
	Branch string
}

// PushResult reports a durably published commit: its identifier and a
// browsable URL. Returned only after the branch ref points at the commit.
type PushResult struct {
	CommitID string
	URL      string
}

// Commit is a commit object created on the remote.
type Commit struct {
	SHA string
	URL string
}

// TreeEntry maps one repository path to a created blob.
type TreeEntry struct {
	Path string
	SHA  string
}

// PutFileRequest is one create-or-update write through the contents
// endpoint. PriorSHA is empty when the file does not exist yet.
type PutFileRequest struct {
	Path     string
	Content  []byte
	Message  string
	Branch   string
	PriorSHA string
}
