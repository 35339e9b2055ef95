package storage

import (
	"fmt"
	"sort"

	"github.com/cuemby/loadstore/pkg/types"
)

// User and group records have no cross-collection bookkeeping; they are
// plain keyed records used by the account-migration client.

// GetUser returns the named user, or (nil, nil) when absent.
func (s *Store) GetUser(name string) (*types.User, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()
	data, err := s.env.Get(nil, CollectionUser, name)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return types.DecodeUser(data)
}

// WriteUser persists the user, overwriting any existing record.
func (s *Store) WriteUser(user *types.User) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()
	return s.env.Put(nil, CollectionUser, user.Name, user.Encode())
}

// RemoveUser deletes the named user.
func (s *Store) RemoveUser(name string) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()
	data, err := s.env.Get(nil, CollectionUser, name)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("no such user: %s", name)
	}
	return s.env.Delete(nil, CollectionUser, name)
}

// GetUsers returns every user, sorted by name.
func (s *Store) GetUsers() ([]*types.User, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()

	var users []*types.User
	var decodeErr error
	err = s.env.Scan(CollectionUser, func(key string, value []byte) error {
		u, err := types.DecodeUser(value)
		if err != nil {
			decodeErr = err
			return err
		}
		users = append(users, u)
		return nil
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

// GetGroup returns the named group, or (nil, nil) when absent.
func (s *Store) GetGroup(name string) (*types.Group, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()
	data, err := s.env.Get(nil, CollectionGroup, name)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return types.DecodeGroup(data)
}

// WriteGroup persists the group, overwriting any existing record.
func (s *Store) WriteGroup(group *types.Group) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()
	return s.env.Put(nil, CollectionGroup, group.Name, group.Encode())
}

// RemoveGroup deletes the named group.
func (s *Store) RemoveGroup(name string) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()
	data, err := s.env.Get(nil, CollectionGroup, name)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("no such group: %s", name)
	}
	return s.env.Delete(nil, CollectionGroup, name)
}

// GetGroups returns every group, sorted by name.
func (s *Store) GetGroups() ([]*types.Group, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()

	var groups []*types.Group
	var decodeErr error
	err = s.env.Scan(CollectionGroup, func(key string, value []byte) error {
		g, err := types.DecodeGroup(value)
		if err != nil {
			decodeErr = err
			return err
		}
		groups = append(groups, g)
		return nil
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

// GetJobGroup returns the named job group with member payloads, or
// (nil, nil) when absent.
func (s *Store) GetJobGroup(name string) (*types.JobGroup, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()
	data, err := s.env.Get(nil, CollectionJobGroup, name)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return types.DecodeJobGroup(data)
}

// GetJobGroupSummaries returns every job group without member payloads,
// sorted by name.
func (s *Store) GetJobGroupSummaries() ([]*types.JobGroup, error) {
	release, err := s.acquireOpen()
	if err != nil {
		return nil, err
	}
	defer release()

	var groups []*types.JobGroup
	var decodeErr error
	err = s.env.Scan(CollectionJobGroup, func(key string, value []byte) error {
		g, err := types.DecodeJobGroupSummary(value)
		if err != nil {
			decodeErr = err
			return err
		}
		groups = append(groups, g)
		return nil
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

// WriteJobGroup persists the job group, overwriting any existing record.
func (s *Store) WriteJobGroup(group *types.JobGroup) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()
	return s.env.Put(nil, CollectionJobGroup, group.Name, group.Encode())
}

// RemoveJobGroup deletes the named job group.
func (s *Store) RemoveJobGroup(name string) error {
	release, err := s.acquireWritable()
	if err != nil {
		return err
	}
	defer release()
	data, err := s.env.Get(nil, CollectionJobGroup, name)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("no such job group: %s", name)
	}
	return s.env.Delete(nil, CollectionJobGroup, name)
}
