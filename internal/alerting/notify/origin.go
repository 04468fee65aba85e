package notify

import (
	"fmt"
	"os"
	"os/user"
)

// Origin identifies the machine and account a notice was raised on.
type Origin struct {
	// Hostname is the name of the host.
	Hostname string `json:"host"`
	// Username is the account running the daemon.
	Username string `json:"user"`
}

// DetectOrigin gathers host and user information.
func DetectOrigin() (Origin, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return Origin{}, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return Origin{}, fmt.Errorf("current user: %w", err)
	}

	return Origin{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}

// String renders the origin as user@host.
func (o Origin) String() string {
	return o.Username + "@" + o.Hostname
}
