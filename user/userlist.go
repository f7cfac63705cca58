package user

import (
	"fmt"

	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/utils"
)

// UserList is the static user population of a run. Ids are assigned in
// insertion order, so they double as indices into per-user arrays.
type UserList struct {
	count int32
	users []*User
}

func CreateUserList(positions []utils.Position) *UserList {
	userList := UserList{
		users: make([]*User, 0, len(positions)),
	}

	for _, pos := range positions {
		userList.addUser(NewUser(pos.X, pos.Y))
	}

	return &userList
}

func ReadUserList(filePath string) (*UserList, error) {
	positions, err := utils.ReadPositions(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading users from %s: %w", filePath, err)
	}

	return CreateUserList(positions), nil
}

func (ul *UserList) addUser(u *User) {
	u.id = UserId(ul.count)
	ul.users = append(ul.users, u)
	ul.count++
}

func (ul *UserList) Count() int32 {
	return ul.count
}

func (ul *UserList) GetUserIds() []UserId {
	ids := make([]UserId, len(ul.users))
	for idx, u := range ul.users {
		ids[idx] = u.GetId()
	}
	return ids
}

func (ul *UserList) Positions() []utils.Position {
	positions := make([]utils.Position, len(ul.users))
	for idx, u := range ul.users {
		positions[idx] = u.GetPosition()
	}
	return positions
}
