package realm

// version of the node. Release builds set it with
//
//	-ldflags "-X github.com/herorealm/realm.version=v1.2.0"
var version = "v0.1.0-dev"

// GitCommit set by build flags
var GitCommit = ""

// Version is the string to be displayed
func Version() string {
	if GitCommit == "" {
		return version
	}
	return version + " " + GitCommit
}
