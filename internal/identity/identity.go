package identity

import (
	"context"
	"errors"
	"fmt"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrUnknownUser reports that the user database has no entry for a name.
var ErrUnknownUser = errors.New("unknown user")

// Identity is the resolved account a job is delivered to.
type Identity struct {
	Name string
	UID  int
	GID  int
	Home string
}

// Resolver maps a user name to an Identity.
type Resolver interface {
	Lookup(ctx context.Context, name string) (Identity, error)
}

// System resolves names through the operating system's user database.
type System struct{}

// Lookup implements Resolver.
func (System) Lookup(ctx context.Context, name string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Identity{}, fmt.Errorf("%w: empty name", ErrUnknownUser)
	}
	u, err := user.Lookup(name)
	if err != nil {
		var unknown user.UnknownUserError
		if errors.As(err, &unknown) {
			return Identity{}, fmt.Errorf("%w: %s", ErrUnknownUser, name)
		}
		return Identity{}, fmt.Errorf("lookup user %s: %w", name, err)
	}
	return fromUser(u)
}

func fromUser(u *user.User) (Identity, error) {
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return Identity{}, fmt.Errorf("user %s has non-numeric uid %q", u.Username, u.Uid)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return Identity{}, fmt.Errorf("user %s has non-numeric gid %q", u.Username, u.Gid)
	}
	id := Identity{Name: u.Username, UID: uid, GID: gid, Home: u.HomeDir}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// Validate rejects identities that cannot receive a delivery.
func (id Identity) Validate() error {
	if id.UID < 0 || id.GID < 0 {
		return fmt.Errorf("user %s has negative ids", id.Name)
	}
	home := strings.TrimSpace(id.Home)
	if home == "" {
		return fmt.Errorf("user %s has no home directory", id.Name)
	}
	if !filepath.IsAbs(home) {
		return fmt.Errorf("user %s home directory %q is not absolute", id.Name, home)
	}
	return nil
}

// Static resolves names from a fixed table.
type Static map[string]Identity

// Lookup implements Resolver.
func (s Static) Lookup(ctx context.Context, name string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	id, ok := s[name]
	if !ok {
		return Identity{}, fmt.Errorf("%w: %s", ErrUnknownUser, name)
	}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}
